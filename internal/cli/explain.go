package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/querysql"
)

// ExplainResult is the SQL a definition compiles to.
type ExplainResult struct {
	Criteria   string   `json:"criteria"`
	Collection string   `json:"collection"`
	Query      string   `json:"query"`
	SQL        string   `json:"sql"`
	Params     []any    `json:"params"`
	Warnings   []string `json:"warnings,omitempty"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <criteria-file> [name]",
		Short: "Show the SQL a criteria definition compiles to",
		Long: `Show the parameterized SQL a criteria definition runs against the
document store, with its parameters and any portability warnings.
No database is needed.

Example:
  criteria explain adults.cue
  criteria explain criteria.yaml adults --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			return runExplain(rootOpts, args[0], name, cmd)
		},
	}

	return cmd
}

func runExplain(opts *RootOptions, path, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	criteria, err := loadCriteria(formatter, path, name)
	if err != nil {
		return err
	}

	sel, err := criteria.Query.Lower(criteria.From)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBuildFailed, err.Error())
	}
	stmt, params, err := querysql.NewSQLCompiler().Compile(sel)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBuildFailed, err.Error())
	}

	result := ExplainResult{
		Criteria:   criteria.Name,
		Collection: criteria.From,
		Query:      criteria.Query.String(),
		SQL:        stmt,
		Params:     params,
		Warnings:   criteria.Warnings,
	}

	return formatter.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "criteria: %s (%s)\n", result.Criteria, result.Collection)
		fmt.Fprintf(w, "query:    %s\n", result.Query)
		fmt.Fprintf(w, "sql:      %s\n", result.SQL)
		fmt.Fprintf(w, "params:   %v\n", result.Params)
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "warning:  %s\n", warning)
		}
	})
}
