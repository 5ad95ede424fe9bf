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
	"text/tabwriter"
	"time"

	"github.com/journeytrack/journeytrack/cmd/journeytrack/cli"
	"github.com/journeytrack/journeytrack/lib/clock"
	"github.com/journeytrack/journeytrack/lib/logstore"
)

// logEntry is the output type for the logs commands. Flattens a stored
// DeviceLog for tabular display and NDJSON export. Payload carries the
// verbatim reply body, so reply rows round-trip without re-encoding
// artifacts.
type logEntry struct {
	ID            int64           `json:"id"`
	CorrelationID string          `json:"correlation_id"`
	SessionID     int64           `json:"session_id"`
	DeviceIMEI    string          `json:"device_imei"`
	Outcome       string          `json:"outcome"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Detail        string          `json:"detail,omitempty"`
	CollectedAt   time.Time       `json:"collected_at"`
}

func logEntryFromRecord(record logstore.DeviceLog) logEntry {
	entry := logEntry{
		ID:            record.ID,
		CorrelationID: record.CorrelationID,
		SessionID:     record.SessionID,
		DeviceIMEI:    record.DeviceIMEI,
		Outcome:       string(record.Outcome),
		Detail:        record.Detail,
		CollectedAt:   record.CollectedAt,
	}
	if record.Payload != nil {
		entry.Payload = json.RawMessage(record.Payload)
	}
	return entry
}

// logQueryParams is the shared filter flag group for the logs
// subcommands.
type logQueryParams struct {
	Database string `flag:"db" desc:"path to the journeytrack database" default:"journeytrack.db"`
	Session  int64  `flag:"session,s" desc:"filter by journey session id"`
	IMEI     string `flag:"imei" desc:"filter by device IMEI"`
	Outcome  string `flag:"outcome" desc:"filter by outcome (reply, timeout, error)"`
	Since    string `flag:"since" desc:"earliest collected-at (duration like 1h, 7d, RFC3339, or YYYY-MM-DD)"`
}

// filter translates the flag values into a store filter. Flag parse
// errors surface here rather than at bind time because outcome and
// since need domain-specific parsing.
func (p *logQueryParams) filter(limit int, now time.Time) (logstore.LogFilter, error) {
	outcome, err := parseOutcomeFlag(p.Outcome)
	if err != nil {
		return logstore.LogFilter{}, err
	}
	since, err := parseSinceFlag(p.Since, now)
	if err != nil {
		return logstore.LogFilter{}, fmt.Errorf("--since: %w", err)
	}
	return logstore.LogFilter{
		SessionID:  p.Session,
		DeviceIMEI: p.IMEI,
		Outcome:    outcome,
		Since:      since,
		Limit:      limit,
	}, nil
}

// unfiltered reports whether no filter flags were set, in which case
// the list footer can meaningfully compare against the total row count.
func (p *logQueryParams) unfiltered() bool {
	return p.Session == 0 && p.IMEI == "" && p.Outcome == "" && p.Since == ""
}

// openLogStore opens the poller database read path. The store creates
// missing database files, which would silently manufacture an empty
// database on a typoed path, so existence is checked first.
func openLogStore(path string, logger *slog.Logger) (*logstore.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return logstore.Open(logstore.Config{
		Path:   path,
		Clock:  clock.Real(),
		Logger: logger,
	})
}

func logsCommand() *cli.Command {
	return &cli.Command{
		Name:    "logs",
		Summary: "Query the device log store",
		Description: `Read device log records written by the poller: one row per poll
request, holding either the device's telemetry reply, a timeout
marker, or an error marker.

These commands open the poller's SQLite database directly, so they
work whether or not the poller is running. Point --db at the
database file from the poller's configuration.`,
		Subcommands: []*cli.Command{
			logsListCommand(),
			logsExportCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Latest 20 records across all sessions",
				Command:     "journeytrack logs list --limit 20",
			},
			{
				Description: "Timed-out requests for one device",
				Command:     "journeytrack logs list --imei 860923054512786 --outcome timeout",
			},
			{
				Description: "Export one session's records as NDJSON",
				Command:     "journeytrack logs export --session 42 --out session42.ndjson",
			},
		},
	}
}

type logsListParams struct {
	logQueryParams
	cli.JSONOutput
	Limit int `flag:"limit,n" desc:"maximum rows to return" default:"100"`
}

func logsListCommand() *cli.Command {
	var params logsListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List device log records",
		Description: `List device log records matching the filters, newest first.

The table shows the collection time, session, device, outcome, and
either the failure detail or a preview of the reply payload. Use
--json for complete records including full payloads.`,
		Usage: "journeytrack logs list [flags]",
		Examples: []cli.Example{
			{
				Description: "Latest records for session 42",
				Command:     "journeytrack logs list --session 42",
			},
			{
				Description: "Errors in the last day",
				Command:     "journeytrack logs list --outcome error --since 1d",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
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

			entries := make([]logEntry, len(records))
			for index, record := range records {
				entries[index] = logEntryFromRecord(record)
			}

			if done, err := params.EmitJSON(entries); done {
				return err
			}

			if len(entries) == 0 {
				logger.Info("no device logs found")
				return nil
			}

			if err := writeLogTable(os.Stdout, entries); err != nil {
				return err
			}

			// Without filters the total row count is comparable to the
			// listing, so surface how much --limit hid.
			if params.unfiltered() {
				total, err := store.CountDeviceLogs(ctx, "")
				if err == nil && total > int64(len(entries)) {
					fmt.Printf("\n%d of %d records shown; raise --limit to see more\n",
						len(entries), total)
				}
			}
			return nil
		},
	}
}

// writeLogTable renders entries as an aligned table. The DETAIL column
// shows the failure detail for timeout and error rows and a payload
// preview for reply rows.
func writeLogTable(w io.Writer, entries []logEntry) error {
	writer := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintf(writer, "COLLECTED\tSESSION\tDEVICE\tOUTCOME\tDETAIL\n")
	for _, entry := range entries {
		fmt.Fprintf(writer, "%s\t%d\t%s\t%s\t%s\n",
			formatTime(entry.CollectedAt),
			entry.SessionID,
			entry.DeviceIMEI,
			entry.Outcome,
			entryDetail(entry),
		)
	}
	return writer.Flush()
}

// entryDetail picks the table detail column: the stored detail for
// failed rows, a truncated payload preview for reply rows.
func entryDetail(entry logEntry) string {
	if entry.Detail != "" {
		return truncate(entry.Detail, 60)
	}
	return truncate(string(entry.Payload), 60)
}
