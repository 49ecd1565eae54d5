package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/smartcoll/internal/queryir"
	"github.com/roach88/smartcoll/internal/value"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Database string
	RunID    string   // optional - restrict to one run
	Where    []string // field=value or field=a|b
	Item     string   // optional - JSON item to match by hash
	Limit    int
}

// QueryResult holds the events matched by a query.
type QueryResult struct {
	Count  int           `json:"count"`
	Events []QueryRecord `json:"events"`
}

// QueryRecord is a matched event with the run it belongs to.
type QueryRecord struct {
	RunID string `json:"run_id"`
	TraceEvent
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Search recorded events across runs",
		Long: `Search the recorded events of one or all runs.

Each --where adds a condition on an event column. Use a|b to match any
of several values. --item matches events about an item equal to the
given JSON value. Conditions are combined with AND.

Columns: run_id, seq, collection, event, op_id, kind, position, item_hash

Examples:
  smartcoll query --db ./smartcoll.db --where event=add-cancel|remove-cancel
  smartcoll query --db ./smartcoll.db --run nightly-1 --where collection=people --limit 5
  smartcoll query --db ./smartcoll.db --item '{"name":"sam"}' --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "restrict to one run ID")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "condition as field=value (repeatable)")
	cmd.Flags().StringVar(&opts.Item, "item", "", "match events about this JSON item")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of events (0 = no limit)")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	query, err := buildQuery(opts)
	if err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}
	if err := queryir.Validate(query).Err(); err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}

	st, _, err := openRun(ctx, opts.RootOptions, opts.Database, opts.RunID)
	if err != nil {
		return err
	}
	defer st.Close()

	events, err := st.SelectEvents(ctx, query)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to query events", err)
	}

	result := QueryResult{Events: []QueryRecord{}}
	for i, ev := range buildTimeline(events, "") {
		result.Events = append(result.Events, QueryRecord{RunID: events[i].RunID, TraceEvent: ev})
	}
	result.Count = len(result.Events)

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}

	w := cmd.OutOrStdout()
	if result.Count == 0 {
		fmt.Fprintln(w, "No matching events.")
		return nil
	}
	run := ""
	for _, rec := range result.Events {
		if rec.RunID != run {
			run = rec.RunID
			fmt.Fprintf(w, "Run: %s\n", run)
		}
		formatTimelineEvent(w, rec.TraceEvent, opts.Verbose)
	}
	fmt.Fprintf(w, "\n%d event(s)\n", result.Count)
	return nil
}

// buildQuery turns the command flags into an event query.
func buildQuery(opts *QueryOptions) (queryir.Select, error) {
	var preds []queryir.Predicate
	if opts.RunID != "" {
		preds = append(preds, queryir.Equals{Field: queryir.ColRunID, Value: value.String(opts.RunID)})
	}
	for _, cond := range opts.Where {
		pred, err := parseCondition(cond)
		if err != nil {
			return queryir.Select{}, err
		}
		preds = append(preds, pred)
	}
	if opts.Item != "" {
		item, err := value.Parse([]byte(opts.Item))
		if err != nil {
			return queryir.Select{}, fmt.Errorf("invalid --item: %w", err)
		}
		pred, err := queryir.ItemHash(item)
		if err != nil {
			return queryir.Select{}, fmt.Errorf("invalid --item: %w", err)
		}
		preds = append(preds, pred)
	}
	return queryir.Select{Filter: queryir.Where(preds...), Limit: opts.Limit}, nil
}

// parseCondition parses field=value, or field=a|b for any of several values.
// Values are typed by the column they compare against.
func parseCondition(cond string) (queryir.Predicate, error) {
	field, raw, ok := strings.Cut(cond, "=")
	if !ok || field == "" {
		return nil, fmt.Errorf("invalid condition %q: expected field=value", cond)
	}
	typ, ok := queryir.Columns[field]
	if !ok {
		return nil, fmt.Errorf("invalid condition %q: unknown column %q", cond, field)
	}

	parts := strings.Split(raw, "|")
	vals := make([]value.Value, 0, len(parts))
	for _, p := range parts {
		if typ == queryir.ColumnInt {
			n, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid condition %q: %s expects an integer", cond, field)
			}
			vals = append(vals, value.Int(n))
			continue
		}
		vals = append(vals, value.String(p))
	}

	if len(vals) == 1 {
		return queryir.Equals{Field: field, Value: vals[0]}, nil
	}
	return queryir.OneOf{Field: field, Values: vals}, nil
}
