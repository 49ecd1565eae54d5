package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/smartcoll/internal/value"
)

// SuspendedOptions holds flags for the suspended command.
type SuspendedOptions struct {
	*RootOptions
	Database   string
	RunID      string
	Collection string
}

// SuspendedEntry is one operation left canceled at the end of a run.
type SuspendedEntry struct {
	Collection string `json:"collection"`
	OpID       string `json:"op_id"`
	Kind       string `json:"kind"`
	Position   string `json:"position"`
	Item       any    `json:"item,omitempty"`
	CancelSeq  int64  `json:"cancel_seq"`
}

// SuspendedResult lists a run's suspended operations.
type SuspendedResult struct {
	RunID      string           `json:"run_id"`
	Operations []SuspendedEntry `json:"operations"`
}

// NewSuspendedCommand creates the suspended command.
func NewSuspendedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SuspendedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "suspended",
		Short: "List operations canceled and never resumed",
		Long: `List the operations of a run that were canceled and never resumed,
in the order they were canceled.

Examples:
  smartcoll suspended --db ./smartcoll.db --run nightly-1
  smartcoll suspended --db ./smartcoll.db --run nightly-1 --collection people`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuspended(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVar(&opts.Collection, "collection", "", "filter to one collection")

	return cmd
}

func runSuspended(opts *SuspendedOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, run, err := openRun(ctx, opts.RootOptions, opts.Database, opts.RunID)
	if err != nil {
		return err
	}
	defer st.Close()

	ops, err := st.FindSuspended(ctx, run.ID, opts.Collection)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find suspended operations", err)
	}

	result := SuspendedResult{RunID: run.ID, Operations: make([]SuspendedEntry, 0, len(ops))}
	for _, op := range ops {
		result.Operations = append(result.Operations, SuspendedEntry{
			Collection: op.Collection,
			OpID:       op.OpID,
			Kind:       op.Kind,
			Position:   op.Position,
			Item:       value.ToAny(op.Item),
			CancelSeq:  op.CancelSeq,
		})
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}

	w := cmd.OutOrStdout()
	if len(ops) == 0 {
		fmt.Fprintf(w, "No suspended operations in run: %s\n", run.ID)
		return nil
	}
	fmt.Fprintf(w, "Suspended operations in run: %s\n", run.ID)
	for _, op := range ops {
		fmt.Fprintf(w, "  [%d] %s %s %s at %s", op.CancelSeq, op.Collection, op.OpID, op.Kind, op.Position)
		if op.Item != nil {
			fmt.Fprintf(w, " %s", value.Format(op.Item))
		}
		fmt.Fprintln(w)
	}
	return nil
}
