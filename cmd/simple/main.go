package main

import (
	"fmt"
	"os"

	"github.com/lixenwraith/logmux"
)

const configFile = "logging_config.yaml"

// Example YAML content
var yamlContent = `
root:
  level: DEBUG
  propagate: false

handlers:
  console:
    type: stream
    level: WARNING
  app_file:
    type: file
    level: DEBUG
    filename: ./logs/app.log
    mode: append
    formatter:
      format: "%(asctime)s - %(name)s - %(levelname)s - %(message)s"
      datefmt: "%Y-%m-%d %H:%M:%S"
`

func main() {
	fmt.Println("--- Single-Process Aggregation Example ---")

	// Create a dummy config file for the demo
	if err := os.WriteFile(configFile, []byte(yamlContent), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write config: %v\n", err)
		os.Exit(1)
	}

	mgr, err := logmux.New(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to construct aggregator: %v\n", err)
		os.Exit(1)
	}
	defer mgr.Close()

	logger := mgr.GetLogger("my_app")
	logger.Debug("debug detail, file only")
	logger.Info("Hello, World!")
	logger.Warning("this reaches the console too")
	logger.Error("something went wrong", "attempt", 3)

	fmt.Printf("mode: %s, handlers wrote to ./logs/app.log\n", mgr.Mode())
}
