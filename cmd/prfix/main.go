package main

import (
	"os"

	"github.com/prfix/prfix/internal/cli"
	"github.com/prfix/prfix/internal/logging"
)

// main is the entry point for the prfix CLI binary.
func main() {
	logger := logging.NewLogger(os.Stderr, logging.LevelInfo)
	if err := cli.Execute(os.Args[1:], logger); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
