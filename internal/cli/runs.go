package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/smartcoll/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
}

// RunSummary describes one recorded run.
type RunSummary struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	LastSeq int64  `json:"last_seq"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Long: `List the runs recorded in a database, oldest first.

Example:
  smartcoll runs --db ./smartcoll.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, _, err := openRun(ctx, opts.RootOptions, opts.Database, "")
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	summaries, err := summarizeRuns(ctx, st, runs)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to summarize runs", err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(summaries)
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range summaries {
		fmt.Fprintf(w, "%s  %-24s %d event(s)\n", r.ID, r.Label, r.LastSeq)
	}
	return nil
}

func summarizeRuns(ctx context.Context, st *store.Store, runs []store.Run) ([]RunSummary, error) {
	out := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		seq, err := st.GetLastSeq(ctx, run.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, RunSummary{ID: run.ID, Label: run.Label, LastSeq: seq})
	}
	return out, nil
}
