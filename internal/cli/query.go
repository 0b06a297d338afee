package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/compiler"
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/repository"
	"github.com/roach88/criteria/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Fields  map[string]string
	Filter  string
	OrderBy string
	Limit   int
	Offset  int
	Count   bool
}

// QueryResult is what filter and query print.
type QueryResult struct {
	Criteria   string         `json:"criteria"`
	Collection string         `json:"collection"`
	Query      string         `json:"query"`
	Count      int            `json:"count"`
	Records    []RecordOutput `json:"records,omitempty"`
	Warnings   []string       `json:"warnings,omitempty"`
}

// RecordOutput is one stored document.
type RecordOutput struct {
	ID   string      `json:"id"`
	Body ir.IRObject `json:"body"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <collection>",
		Short: "Run an ad hoc filter and order_by against a collection",
		Long: `Run an ad hoc query without a definition file.

--filter takes an AIP-160 expression over the fields declared with
--fields; --order-by takes an AIP-132 ordering such as "name, age desc".

Example:
  criteria query people --fields age=int,name=string --filter 'age >= 18' --order-by 'name'
  criteria query people --order-by 'age desc' --limit 10 --count`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringToStringVar(&opts.Fields, "fields", nil, "field kinds, e.g. age=int,name=string")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "AIP-160 filter expression")
	cmd.Flags().StringVar(&opts.OrderBy, "order-by", "", "AIP-132 order_by, e.g. \"name, age desc\"")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of records (0 = all)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of records to skip")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "print only the number of matching records")

	return cmd
}

func runQuery(opts *QueryOptions, collection string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	def := compiler.Definition{
		Name:    "query",
		From:    collection,
		Fields:  opts.Fields,
		Filter:  opts.Filter,
		OrderBy: opts.OrderBy,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	}
	criteria, err := compiler.Build(def)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBuildFailed, err.Error())
	}
	return runCriteria(opts.RootOptions, formatter, criteria, opts.Count, cmd)
}

// runCriteria runs built criteria against the database and prints the
// records they select.
func runCriteria(opts *RootOptions, formatter *OutputFormatter, criteria *compiler.Criteria, countOnly bool, cmd *cobra.Command) error {
	logger := opts.logger()
	for _, w := range criteria.Warnings {
		logger.Warn("portability warning", "criteria", criteria.Name, "warning", w)
	}

	st, err := openStore(opts, formatter, false)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := commandContext(cmd)
	m := newCommandMetrics()
	defer m.report(formatter)
	repo := repository.NewSQL(st, criteria.From, repository.DocumentCodec{},
		repository.WithLogger(logger),
		repository.WithMetrics(m.Metrics))

	result := QueryResult{
		Criteria:   criteria.Name,
		Collection: criteria.From,
		Query:      criteria.Query.String(),
		Warnings:   criteria.Warnings,
	}

	if countOnly {
		if result.Count, err = repo.Count(ctx, criteria.Query); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeQueryFailed, err.Error())
		}
	} else {
		recs, err := repo.Find(ctx, criteria.Query)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeQueryFailed, err.Error())
		}
		result.Count = len(recs)
		result.Records = make([]RecordOutput, len(recs))
		for i, rec := range recs {
			result.Records[i] = RecordOutput{ID: rec.ID, Body: rec.Value}
		}
	}

	return formatter.Render(result, func(w io.Writer) {
		for _, rec := range result.Records {
			body, err := rec.Body.MarshalJSON()
			if err != nil {
				body = []byte(fmt.Sprintf("<%v>", err))
			}
			fmt.Fprintf(w, "%s\t%s\n", rec.ID, body)
		}
		fmt.Fprintf(w, "%d record(s)\n", result.Count)
	})
}

// openStore opens the database named by --db. Only load may create it.
func openStore(opts *RootOptions, formatter *OutputFormatter, create bool) (*store.Store, error) {
	if opts.DB == "" {
		return nil, formatter.Fail(ExitCommandError, ErrCodeNotFound, "no database: set --db or CRITERIA_DB")
	}
	if !create {
		if _, err := os.Stat(opts.DB); errors.Is(err, fs.ErrNotExist) {
			return nil, formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.DB))
		}
	}

	st, err := store.Open(opts.DB, store.WithLogger(opts.logger()))
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("open database: %v", err))
	}
	opts.logger().Debug("database ready", "path", opts.DB)
	return st, nil
}
