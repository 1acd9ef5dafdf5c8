package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/docker/agent-skills/cmd/root"
	"github.com/docker/agent-skills/pkg/errs"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := root.Execute(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]...); err != nil {
		slog.Error("exiting", "error", err)
		if errors.Is(err, errs.ErrConfigInvalid) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}
