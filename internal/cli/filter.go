package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/compiler"
)

// FilterOptions holds flags for the filter command.
type FilterOptions struct {
	*RootOptions
	Count bool
}

// NewFilterCommand creates the filter command.
func NewFilterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "filter <criteria-file> [name]",
		Short: "Run a criteria definition against the database",
		Long: `Run a named criteria definition against the collection it reads from.

The name may be omitted when the file holds a single definition.

Example:
  criteria filter adults.cue --db people.db
  criteria filter criteria.yaml adults --count`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			return runFilter(opts, args[0], name, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Count, "count", false, "print only the number of matching records")

	return cmd
}

func runFilter(opts *FilterOptions, path, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	criteria, err := loadCriteria(formatter, path, name)
	if err != nil {
		return err
	}
	return runCriteria(opts.RootOptions, formatter, criteria, opts.Count, cmd)
}

// loadCriteria loads the definition called name from path and builds it.
// Failures are reported through formatter.
func loadCriteria(formatter *OutputFormatter, path, name string) (*compiler.Criteria, error) {
	loadResult, loadErrors := LoadDefinitions([]string{path}, LoadModeFailFast)
	if len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return nil, formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Error())
		}
		return nil, formatter.Fail(ExitCommandError, ErrCodeGeneric, loadErrors[0].Error())
	}

	def, err := selectDefinition(loadResult.Definitions, name)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeNoCriteria, err.Error())
	}
	formatter.VerboseLog("Building criteria: %s", def.Name)

	criteria, err := compiler.Build(def)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeBuildFailed, err.Error())
	}
	return criteria, nil
}
