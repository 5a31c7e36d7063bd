package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

// isTTY mirrors cklxx-elephant.ai/cmd/cobra_cli.go's isTTY: used to decide
// whether logs should also be pretty-printed to stderr.
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// signalContext returns a context canceled on SIGINT/SIGTERM, for the
// long-running commands (process, reanalyze, search, chat, feedback,
// profile-update, profile-rebuild).
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

const version = "0.1.0"
