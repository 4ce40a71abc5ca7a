package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/lixenwraith/logmux"
)

// Demonstrates queue-based aggregation: one owner instance creates the queue
// and listener, worker instances share the queue and never touch the sinks.
func main() {
	owner, err := logmux.NewBuilder().
		RootLevel("DEBUG").
		Stream("console", "WARNING").
		RotatingFile("app", "./logs/app.log", "DEBUG", 1<<20, 3).
		Multiprocessing().
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build aggregator: %v\n", err)
		os.Exit(1)
	}
	defer owner.Close()

	main := owner.GetLogger("main")
	main.Info("aggregator started", "mode", owner.Mode())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			worker, err := logmux.NewBuilder().
				Multiprocessing().
				Queue(owner.Queue()).
				Build()
			if err != nil {
				fmt.Fprintf(os.Stderr, "worker %d failed: %v\n", id, err)
				return
			}
			// Worker Stop is a no-op; the owner tears everything down.
			defer worker.Close()

			logger := worker.GetLogger(fmt.Sprintf("worker-%d", id))
			for j := 0; j < 100; j++ {
				logger.Info("processing item", j)
			}
			logger.Warning("worker done", "id", id)
		}(i)
	}

	wg.Wait()
	main.Info("all workers joined")
}
