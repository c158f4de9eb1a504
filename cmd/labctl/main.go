package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dfir-lab/labctl/internal/cli"
	"github.com/dfir-lab/labctl/internal/logging"
)

// main is the entry point for the labctl CLI binary.
func main() {
	logger := logging.NewLogger(os.Stderr, logging.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, os.Args[1:], logger); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
