package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/query"
	"github.com/roach88/criteria/internal/repository"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	IDField string
	Replace bool
}

// LoadOutput reports what load stored.
type LoadOutput struct {
	Collection string   `json:"collection"`
	IDs        []string `json:"ids"`
	Removed    int      `json:"removed,omitempty"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <collection> <records-file>",
		Short: "Store records in a collection",
		Long: `Store a YAML or JSON list of objects in a collection, creating the
database if it does not exist.

Records get generated UUIDv7 ids unless --id-field names a string field
to use instead; an existing record with that id is replaced in place.

Example:
  criteria load people people.json --db people.db
  criteria load people people.yaml --id-field email --replace`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.IDField, "id-field", "", "use this string field as the record id")
	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "remove every record in the collection first")

	return cmd
}

func runLoad(opts *LoadOptions, collection, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.logger()

	docs, err := LoadRecords(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeRecords, err.Error())
	}

	ids := make([]string, len(docs))
	if opts.IDField != "" {
		for i, doc := range docs {
			id, ok := doc.Lookup(opts.IDField).(ir.IRString)
			if !ok || id == "" {
				return formatter.Fail(ExitCommandError, ErrCodeRecords,
					fmt.Sprintf("records[%d]: %s is not a non-empty string", i, opts.IDField))
			}
			ids[i] = string(id)
		}
	}

	st, err := openStore(opts.RootOptions, formatter, true)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := commandContext(cmd)
	repo := repository.NewSQL(st, collection, repository.DocumentCodec{}, repository.WithLogger(logger))

	out := LoadOutput{Collection: collection, IDs: ids}
	if opts.Replace {
		if out.Removed, err = repo.RemoveWhere(ctx, query.New[ir.IRObject]()); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error())
		}
		logger.Info("collection cleared", "collection", collection, "removed", out.Removed)
	}

	for i, doc := range docs {
		if opts.IDField != "" {
			err = repo.Put(ctx, ids[i], doc)
		} else {
			ids[i], err = repo.Add(ctx, doc)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("records[%d]: %v", i, err))
		}
	}
	logger.Info("records stored", "collection", collection, "count", len(docs))

	return formatter.Render(out, func(w io.Writer) {
		for _, id := range out.IDs {
			fmt.Fprintln(w, id)
		}
		fmt.Fprintf(w, "%d record(s) stored in %s\n", len(out.IDs), collection)
	})
}
