package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"greencart/internal/bootstrap"
)

func main() {
	// Money values are JSON numbers on the wire
	decimal.MarshalJSONWithoutQuotes = true

	container := bootstrap.NewContainer()
	container.MustInit()

	if err := container.Start(); err != nil {
		container.Log.Fatalf("failed to start: %v", err)
	}

	waitForShutdown(container)
}

// waitForShutdown blocks until a signal arrives or the HTTP server fails
func waitForShutdown(c *bootstrap.Container) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		c.Log.Infow("Shutdown signal received", "signal", sig.String())
	case <-c.Context.Done():
		c.Log.Warn("Context cancelled, shutting down")
	}

	c.Shutdown()
}
