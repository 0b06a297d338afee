package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/queryir"
)

// ErrNotFound is returned by Get for a missing document.
var ErrNotFound = errors.New("document not found")

// Document is one stored record.
type Document struct {
	ID   string
	Seq  int64
	Body ir.IRObject
}

// Get returns one document by id.
func (s *Store) Get(ctx context.Context, collection, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, body
		FROM documents
		WHERE collection = ? AND id = ?
	`, collection, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Select returns the documents a query selects, in query order.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Select(ctx context.Context, q queryir.Select) ([]Document, error) {
	query, params, err := s.compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	s.logger.Debug("select documents", "collection", q.From, "sql", query, "params", len(params))

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// All returns every document of a collection in insertion order.
func (s *Store) All(ctx context.Context, collection string) ([]Document, error) {
	return s.Select(ctx, queryir.Select{From: collection})
}

// Count returns how many documents a query selects.
func (s *Store) Count(ctx context.Context, q queryir.Select) (int, error) {
	query, params, err := s.compiler.CompileCount(q)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Collections returns the names of all non-empty collections, sorted.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT collection
		FROM documents
		ORDER BY collection COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return names, nil
}

// Explain returns the SQL and parameters Select would run for q.
func (s *Store) Explain(q queryir.Select) (string, []any, error) {
	return s.compiler.Compile(q)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (Document, error) {
	var (
		doc  Document
		body string
	)
	if err := row.Scan(&doc.ID, &doc.Seq, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, err
		}
		return Document{}, fmt.Errorf("scan document: %w", err)
	}

	parsed, err := unmarshalBody(body)
	if err != nil {
		return Document{}, fmt.Errorf("document %s: %w", doc.ID, err)
	}
	doc.Body = parsed
	return doc, nil
}
