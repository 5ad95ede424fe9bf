// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/journeytrack/journeytrack/cmd/journeytrack/cli"
	"github.com/journeytrack/journeytrack/lib/process"
	"github.com/journeytrack/journeytrack/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return rootCommand().Execute(ctx, os.Args[1:], logger)
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name: "journeytrack",
		Description: `JourneyTrack operator tools.

Inspect a running telemetry poller and query the device log store.`,
		Subcommands: []*cli.Command{
			statusCommand(),
			logsCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
					fmt.Printf("journeytrack %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Check the running poller",
				Command:     "journeytrack status",
			},
			{
				Description: "List the latest device logs for one session",
				Command:     "journeytrack logs list --session 42 --limit 20",
			},
			{
				Description: "Export all logs as compressed NDJSON",
				Command:     "journeytrack logs export --out logs.ndjson.zst --compress zstd",
			},
		},
	}
}
