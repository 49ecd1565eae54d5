package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/smartcoll/internal/store"
	"github.com/roach88/smartcoll/internal/value"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database   string
	RunID      string
	Collection string // optional - filter to one collection
	OpID       string // optional - filter to one operation
}

// TraceEvent represents a single event in the trace timeline.
type TraceEvent struct {
	Seq        int64  `json:"seq"`
	Collection string `json:"collection"`
	Event      string `json:"event"`
	OpID       string `json:"op_id,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Position   string `json:"position,omitempty"`
	Item       any    `json:"item,omitempty"`

	item value.Value
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunID       string       `json:"run_id"`
	Label       string       `json:"label"`
	Collections []string     `json:"collections"`
	Timeline    []TraceEvent `json:"timeline"`
	Stats       TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Operations  int `json:"operations"`
	Canceled    int `json:"canceled"`
	Resumed     int `json:"resumed"`
	Suspended   int `json:"suspended"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded events of a run",
		Long: `Show the events recorded for a run, in emission order.

The output includes:
- Timeline: every before, mutation, after, cancel and resume event
- Stats: operation counts and how many remain suspended

Examples:
  smartcoll trace --db ./smartcoll.db --run 0192e0c4-...
  smartcoll trace --db ./smartcoll.db --run nightly-1 --collection people
  smartcoll trace --db ./smartcoll.db --run nightly-1 --op op-3 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to trace (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVar(&opts.Collection, "collection", "", "filter to one collection")
	cmd.Flags().StringVar(&opts.OpID, "op", "", "filter to one operation ID")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, run, err := openRun(ctx, opts.RootOptions, opts.Database, opts.RunID)
	if err != nil {
		return err
	}
	defer st.Close()

	var events []store.EventRecord
	if opts.OpID != "" {
		events, err = st.ReadOperation(ctx, run.ID, opts.OpID)
	} else {
		events, err = st.ReadTrace(ctx, run.ID, opts.Collection)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}

	collections, err := st.ListCollections(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list collections", err)
	}
	suspended, err := st.FindSuspended(ctx, run.ID, opts.Collection)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find suspended operations", err)
	}

	result := TraceResult{
		RunID:       run.ID,
		Label:       run.Label,
		Collections: collections,
		Timeline:    buildTimeline(events, opts.Collection),
	}
	result.Stats = traceStats(result.Timeline)
	result.Stats.Suspended = len(suspended)

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

// openRun opens the database and checks that the run exists.
func openRun(ctx context.Context, opts *RootOptions, dbFlag, runID string) (*store.Store, store.Run, error) {
	dbPath := opts.dbPath(dbFlag)
	if dbPath == "" {
		return nil, store.Run{}, NewExitError(ExitCommandError, "no database given: use --db or set db in config")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, store.Run{}, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	if runID == "" {
		return st, store.Run{}, nil
	}

	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		st.Close()
		return nil, store.Run{}, NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
	}
	if err != nil {
		st.Close()
		return nil, store.Run{}, WrapExitError(ExitCommandError, "failed to read run", err)
	}
	return st, run, nil
}

// buildTimeline converts stored events to timeline events. An operation
// filter reads across collections, so the collection filter applies here
// too.
func buildTimeline(events []store.EventRecord, collection string) []TraceEvent {
	timeline := []TraceEvent{}
	for _, ev := range events {
		if collection != "" && ev.Collection != collection {
			continue
		}
		timeline = append(timeline, TraceEvent{
			Seq:        ev.Seq,
			Collection: ev.Collection,
			Event:      ev.Event,
			OpID:       ev.OpID,
			Kind:       ev.Kind,
			Position:   ev.Position,
			Item:       value.ToAny(ev.Item),
			item:       ev.Item,
		})
	}
	return timeline
}

func traceStats(timeline []TraceEvent) TraceStats {
	stats := TraceStats{TotalEvents: len(timeline)}
	ops := make(map[string]bool)
	for _, ev := range timeline {
		if ev.OpID != "" {
			ops[ev.OpID] = true
		}
		switch {
		case strings.HasSuffix(ev.Event, "-cancel"):
			stats.Canceled++
		case strings.HasSuffix(ev.Event, "-resume"):
			stats.Resumed++
		}
	}
	stats.Operations = len(ops)
	return stats
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Trace for Run: %s", result.RunID)
	if result.Label != "" {
		fmt.Fprintf(w, " (%s)", result.Label)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Collections: %s\n", strings.Join(result.Collections, ", "))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Timeline {
		formatTimelineEvent(w, ev, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Operations:   %d\n", result.Stats.Operations)
	fmt.Fprintf(w, "  Canceled:     %d\n", result.Stats.Canceled)
	fmt.Fprintf(w, "  Resumed:      %d\n", result.Stats.Resumed)
	fmt.Fprintf(w, "  Suspended:    %d\n", result.Stats.Suspended)

	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, ev TraceEvent, verbose bool) {
	fmt.Fprintf(w, "  [%d] %s %s", ev.Seq, ev.Collection, ev.Event)
	if ev.OpID != "" {
		fmt.Fprintf(w, " %s", ev.OpID)
	}
	if ev.item != nil {
		fmt.Fprintf(w, " %s", value.Format(ev.item))
	}
	fmt.Fprintln(w)
	if verbose && ev.Position != "" {
		fmt.Fprintf(w, "       Position: %s\n", ev.Position)
	}
}
