package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/smartcoll/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                       `json:"valid"`
	Collections []string                   `json:"collections,omitempty"`
	Errors      []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate collection specs",
		Long: `Validate CUE collection specs.

Loads every .cue file in the directory, compiles each collection and
checks schemas, guards and views. All errors are reported, not just
the first one.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loadResult, loadErrors := compiler.LoadDir(specsDir, compiler.LoadModeCollectAll)

	// Directory not found, no files, CUE build failure
	if loadResult == nil && len(loadErrors) > 0 {
		code, message := ErrorCode(loadErrors[0]), loadErrors[0].Error()
		var loadErr *compiler.LoadError
		if errors.As(loadErrors[0], &loadErr) {
			message = loadErr.Message
		}
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)

	names := make([]string, 0, len(loadResult.Collections))
	for _, spec := range loadResult.Collections {
		formatter.VerboseLog("Validated collection: %s (%d guard(s), %d view(s))", spec.Name, len(spec.Guards), len(spec.Views))
		names = append(names, spec.Name)
	}

	if len(loadErrors) > 0 {
		return outputValidationErrors(formatter, toValidationErrors(loadErrors))
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Collections: names})
	}
	fmt.Fprintf(formatter.Writer, "✓ All specs valid (%d collection(s))\n", len(names))
	return nil
}

func toValidationErrors(errs []error) []compiler.ValidationError {
	out := make([]compiler.ValidationError, 0, len(errs))
	for _, err := range errs {
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) {
			ve := compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
			}
			if loadErr.Pos.IsValid() {
				ve.Line = loadErr.Pos.Line()
			}
			out = append(out, ve)
			continue
		}
		out = append(out, compiler.ValidationError{
			Field:   "load",
			Message: err.Error(),
			Code:    compiler.ErrCodeGeneric,
		})
	}
	return out
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
