package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/queryir"
)

// schemaVersion is the user_version of a fully migrated database.
func schemaVersion() int {
	return migrations[len(migrations)-1].version
}

// pragma reads a single pragma value as text.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return value, nil
}

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// person builds a small document with optional nick.
func person(name string, age int64, nick ...string) ir.IRObject {
	doc := ir.NewIRObject(
		ir.O("name", ir.IRString(name)),
		ir.O("age", ir.IRInt(age)),
	)
	if len(nick) > 0 {
		doc["nick"] = ir.IRString(nick[0])
	}
	return doc
}

// seedPeople stores documents p1..pN in "people" in the given order.
func seedPeople(t *testing.T, s *Store, docs ...ir.IRObject) {
	t.Helper()
	for i, doc := range docs {
		id := "p" + string(rune('1'+i))
		if _, err := s.Put(context.Background(), "people", id, doc); err != nil {
			t.Fatalf("Put(%s) failed: %v", id, err)
		}
	}
}

func ids(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func peopleSelect() queryir.Select {
	return queryir.Select{From: "people"}
}
