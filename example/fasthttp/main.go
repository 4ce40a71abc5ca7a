package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/lixenwraith/logmux"
	"github.com/lixenwraith/logmux/compat"
	"github.com/valyala/fasthttp"
)

func main() {
	mgr, err := logmux.NewBuilder().
		RootLevel("INFO").
		Stream("console", "WARNING").
		File("access", "/var/log/fasthttp/access.log", "INFO").
		Build()
	if err != nil {
		panic(err)
	}
	defer mgr.Close()

	// Create fasthttp adapter with custom level detection
	fasthttpAdapter := compat.NewFastHTTPAdapter(
		mgr.GetLogger("fasthttp"),
		compat.WithDefaultLevel(logmux.LevelInfo),
		compat.WithLevelDetector(customLevelDetector),
	)

	// Configure fasthttp server
	server := &fasthttp.Server{
		Handler: requestHandler,
		Logger:  fasthttpAdapter,

		// Other server settings
		Name:              "MyServer",
		Concurrency:       fasthttp.DefaultConcurrency,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		TCPKeepalive:      true,
		ReduceMemoryUsage: true,
	}

	// Start server
	fmt.Println("Starting server on :8080")
	if err := server.ListenAndServe(":8080"); err != nil {
		panic(err)
	}
}

func requestHandler(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/plain")
	fmt.Fprintf(ctx, "Hello, world! Path: %s\n", ctx.Path())
}

func customLevelDetector(msg string) logmux.Level {
	// Custom logic to detect log levels
	// Can inspect specific fasthttp message patterns

	if strings.Contains(msg, "connection cannot be served") {
		return logmux.LevelWarning
	}
	if strings.Contains(msg, "error when serving connection") {
		return logmux.LevelError
	}

	// Use default detection
	return compat.DetectLogLevel(msg)
}
