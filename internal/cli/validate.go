package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                       `json:"valid"`
	Definitions int                        `json:"definitions"`
	Errors      []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate criteria definitions without running them",
		Long: `Validate criteria definition files (CUE, YAML or JSON).

Every file is loaded and every definition checked: required keys, field
declarations, operators and literals, filter and order_by syntax, paging.
All errors are reported, not just the first.

Example:
  criteria validate ./criteria
  criteria validate adults.cue people.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, loadErrors := LoadDefinitions(paths, LoadModeCollectAll)
	if loadResult == nil {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message)
		}
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d definition file(s)", len(loadResult.Files))

	errs := ValidateDefinitions(loadResult.Definitions, formatter)
	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			errs = append(errs, compiler.ValidationError{
				Field:   loadErr.File,
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    loadErr.Line,
			})
		}
	}

	if len(errs) > 0 {
		return outputValidationErrors(formatter, len(loadResult.Definitions), errs)
	}
	return outputValidateSuccess(formatter, len(loadResult.Definitions))
}

// ValidateDefinitions checks defs together (names must be unique) and,
// when they all pass, builds each one.
func ValidateDefinitions(defs []compiler.Definition, formatter *OutputFormatter) []compiler.ValidationError {
	for _, def := range defs {
		formatter.VerboseLog("Validating criteria: %s", def.Name)
	}

	if errs := compiler.ValidateAll(defs); len(errs) > 0 {
		return errs
	}

	var errs []compiler.ValidationError
	for i, def := range defs {
		if _, err := compiler.Build(def); err != nil {
			errs = append(errs, compiler.ValidationError{
				Field:   fmt.Sprintf("criteria[%d]", i),
				Message: err.Error(),
				Code:    ErrCodeBuildFailed,
				Line:    def.Line,
			})
		}
	}
	return errs
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, count int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Definitions: count})
	}

	fmt.Fprintf(formatter.Writer, "✓ All criteria valid (%d)\n", count)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, count int, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:       false,
				Definitions: count,
				Errors:      errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
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
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
