package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/queryir"
)

// Put inserts or replaces a document and returns its seq.
// Replacing keeps the original seq, so a document never moves in insertion
// order once it exists.
func (s *Store) Put(ctx context.Context, collection, id string, body ir.IRObject) (int64, error) {
	return put(ctx, s.db, collection, id, body)
}

// PutAll writes docs into collection in one transaction, in slice order.
// Seq fields of docs are ignored; the assigned seqs are returned.
func (s *Store) PutAll(ctx context.Context, collection string, docs []Document) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("put all: begin: %w", err)
	}
	defer tx.Rollback()

	seqs := make([]int64, len(docs))
	for i, doc := range docs {
		seq, err := put(ctx, tx, collection, doc.ID, doc.Body)
		if err != nil {
			return nil, fmt.Errorf("put all: document %d: %w", i, err)
		}
		seqs[i] = seq
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("put all: commit: %w", err)
	}
	return seqs, nil
}

// execer is the subset of *sql.DB and *sql.Tx that put needs.
type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func put(ctx context.Context, db execer, collection, id string, body ir.IRObject) (int64, error) {
	if collection == "" {
		return 0, fmt.Errorf("put: empty collection")
	}
	if id == "" {
		return 0, fmt.Errorf("put: empty id")
	}

	bodyJSON, err := marshalBody(body)
	if err != nil {
		return 0, fmt.Errorf("put %s/%s: %w", collection, id, err)
	}

	var seq int64
	err = db.QueryRowContext(ctx, `
		INSERT INTO documents (collection, id, body)
		VALUES (?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body
		RETURNING seq
	`, collection, id, bodyJSON).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return seq, nil
}

// Delete removes every document the query selects, honoring order and
// paging, and returns how many were removed.
func (s *Store) Delete(ctx context.Context, q queryir.Select) (int64, error) {
	query, params, err := s.compiler.CompileDelete(q)
	if err != nil {
		return 0, fmt.Errorf("delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, params...)
	if err != nil {
		return 0, fmt.Errorf("delete: %w", err)
	}
	return res.RowsAffected()
}

// DeleteIDs removes the named documents from collection in one transaction.
// Missing ids are ignored.
func (s *Store) DeleteIDs(ctx context.Context, collection string, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("delete ids: begin: %w", err)
	}
	defer tx.Rollback()

	var total int64
	for _, id := range ids {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
		if err != nil {
			return 0, fmt.Errorf("delete %s/%s: %w", collection, id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("delete %s/%s: %w", collection, id, err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("delete ids: commit: %w", err)
	}
	return total, nil
}
