package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/smartcoll/internal/collection"
	"github.com/roach88/smartcoll/internal/harness"
	"github.com/roach88/smartcoll/internal/store"
	"github.com/roach88/smartcoll/internal/value"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	RunID    string
	Base     string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs collection.IDGenerator
}

// CollectionState is the final state of one collection after a run.
type CollectionState struct {
	Name      string   `json:"name"`
	Items     []any    `json:"items"`
	Suspended []string `json:"suspended,omitempty"`

	values []value.Value
}

// RunResult summarizes a recorded scenario run.
type RunResult struct {
	RunID       string            `json:"run_id"`
	Scenario    string            `json:"scenario"`
	Pass        bool              `json:"pass"`
	Events      int               `json:"events"`
	Collections []CollectionState `json:"collections"`
	Errors      []string          `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a scenario and record its trace",
		Long: `Run a scenario file and record every event in a SQLite database.

The database is created if it doesn't exist. Each run is stored under
its own run ID (a UUIDv7 unless --run is given) and can be inspected
later with the trace and suspended commands.

Example:
  smartcoll run --db ./smartcoll.db ./scenarios/checkout.yaml
  smartcoll run --db /tmp/test.db --run nightly-1 ./scenarios/checkout.yaml --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID (default: generated UUIDv7)")
	cmd.Flags().StringVar(&opts.Base, "base", "", "base path for relative spec directories")

	return cmd
}

func runScenarioFile(opts *RunOptions, scenarioFile string, cmd *cobra.Command) error {
	logger := opts.logger()
	formatter := opts.formatter(cmd)

	dbPath := opts.dbPath(opts.Database)
	if dbPath == "" {
		return NewExitError(ExitCommandError, "no database given: use --db or set db in config")
	}

	scenario, err := harness.LoadScenarioWithBasePath(scenarioFile, opts.specsBase(opts.Base))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	logger.Info("opening database", "path", dbPath)
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	runID := opts.RunID
	if runID == "" {
		gen := opts.RunIDs
		if gen == nil {
			gen = collection.UUIDv7Generator{}
		}
		runID = gen.Generate()
	}

	logger.Info("running scenario", "scenario", scenario.Name, "run", runID)
	result, err := harness.Run(scenario, harness.WithStore(st, runID), harness.WithLogger(logger))
	if err != nil {
		_ = formatter.Error(ErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "scenario execution failed", err)
	}
	logger.Info("scenario finished", "run", runID, "events", result.Recorded, "pass", result.Pass)

	out := RunResult{
		RunID:       runID,
		Scenario:    scenario.Name,
		Pass:        result.Pass,
		Events:      result.Recorded,
		Collections: collectionStates(result),
		Errors:      result.Errors,
	}

	if opts.Format == "json" {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else {
		outputRunText(formatter, out)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func collectionStates(result *harness.Result) []CollectionState {
	names := make([]string, 0, len(result.Items))
	for name := range result.Items {
		names = append(names, name)
	}
	sort.Strings(names)

	states := make([]CollectionState, 0, len(names))
	for _, name := range names {
		items := make([]any, len(result.Items[name]))
		for i, v := range result.Items[name] {
			items[i] = value.ToAny(v)
		}
		states = append(states, CollectionState{
			Name:      name,
			Items:     items,
			Suspended: result.Suspended[name],
			values:    result.Items[name],
		})
	}
	return states
}

func outputRunText(f *OutputFormatter, r RunResult) {
	w := f.Writer
	mark := "✓"
	if !r.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s\n", mark, r.Scenario)
	fmt.Fprintf(w, "Run: %s\n", r.RunID)
	fmt.Fprintf(w, "Events recorded: %d\n", r.Events)
	for _, c := range r.Collections {
		fmt.Fprintf(w, "\n%s (%d item(s))\n", c.Name, len(c.Items))
		for i, v := range c.values {
			fmt.Fprintf(w, "  [%d] %s\n", i, value.Format(v))
		}
		if len(c.Suspended) > 0 {
			fmt.Fprintf(w, "  suspended: %v\n", c.Suspended)
		}
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
