// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/journeytrack/journeytrack/cmd/journeytrack/cli"
	"github.com/journeytrack/journeytrack/lib/logstore"
)

type logsExportParams struct {
	logQueryParams
	Out      string `flag:"out,o" desc:"output file (default stdout)"`
	Limit    int    `flag:"limit,n" desc:"maximum rows to export" default:"100000"`
	Compress string `flag:"compress" desc:"compression for the output stream (zstd, lz4, none)" default:"none"`
}

func logsExportCommand() *cli.Command {
	var params logsExportParams

	return &cli.Command{
		Name:    "export",
		Summary: "Export device log records as NDJSON",
		Description: `Stream device log records matching the filters as NDJSON, one
JSON object per line, oldest first. Reply payloads are embedded
verbatim, so an exported reply line contains exactly the bytes the
device sent.

The stream can be compressed on the fly: zstd suits archival of
large exports, lz4 favors decode speed. With --out the stream goes
to a file; otherwise it goes to stdout for piping.`,
		Usage: "journeytrack logs export [flags]",
		Examples: []cli.Example{
			{
				Description: "Everything, zstd-compressed",
				Command:     "journeytrack logs export --out logs.ndjson.zst --compress zstd",
			},
			{
				Description: "One session to stdout",
				Command:     "journeytrack logs export --session 42 | jq .outcome",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			algorithm, err := parseCompressionFlag(params.Compress)
			if err != nil {
				return err
			}
			filter, err := params.filter(params.Limit, time.Now())
			if err != nil {
				return err
			}

			store, err := openLogStore(params.Database, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.QueryDeviceLogs(ctx, filter)
			if err != nil {
				return err
			}

			destination := "stdout"
			output := os.Stdout
			if params.Out != "" {
				file, err := os.Create(params.Out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", params.Out, err)
				}
				defer file.Close()
				destination = params.Out
				output = file
			}

			writer, err := newExportWriter(output, algorithm)
			if err != nil {
				return err
			}

			written, err := exportLogs(writer, records)
			if err != nil {
				writer.Close()
				return err
			}
			if err := writer.Close(); err != nil {
				return fmt.Errorf("finalizing %s stream: %w", algorithm, err)
			}
			if output != os.Stdout {
				if err := output.Close(); err != nil {
					return fmt.Errorf("closing %s: %w", params.Out, err)
				}
			}

			logger.Info("export complete",
				"records", written,
				"destination", destination,
				"compression", algorithm)
			return nil
		},
	}
}

// parseCompressionFlag validates a compression flag value and returns
// its canonical name. An empty value means none.
func parseCompressionFlag(name string) (string, error) {
	switch name {
	case "", "none":
		return "none", nil
	case "zstd":
		return "zstd", nil
	case "lz4":
		return "lz4", nil
	default:
		return "", fmt.Errorf("unknown compression %q: expected zstd, lz4, or none", name)
	}
}

// newExportWriter wraps w in the requested compression stream. The
// caller must Close the returned writer to flush the final frame;
// closing it does not close w.
func newExportWriter(w io.Writer, algorithm string) (io.WriteCloser, error) {
	switch algorithm {
	case "none":
		return nopWriteCloser{w}, nil
	case "zstd":
		encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return encoder, nil
	case "lz4":
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", algorithm)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// exportLogs writes records to w as NDJSON, one object per line.
// Query results arrive newest first; the export streams them in
// chronological order. Returns the number of lines written.
func exportLogs(w io.Writer, records []logstore.DeviceLog) (int, error) {
	encoder := json.NewEncoder(w)
	written := 0
	for index := len(records) - 1; index >= 0; index-- {
		if err := encoder.Encode(logEntryFromRecord(records[index])); err != nil {
			return written, fmt.Errorf("encoding record %s: %w", records[index].CorrelationID, err)
		}
		written++
	}
	return written, nil
}
