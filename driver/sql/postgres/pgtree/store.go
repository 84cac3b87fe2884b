// Package pgtree provides an implementation of [tree.BinaryStore] that
// persists trees in a PostgreSQL database.
package pgtree

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/treekit/tree"
)

// Store is an implementation of [tree.BinaryStore] that stores trees in a
// PostgreSQL database.
type Store struct {
	DB *sql.DB
}

// Open returns the tree with the given name, creating it if necessary.
//
// PostgreSQL compares BYTEA values byte-wise, so the index order of the
// primary key is the lexicographic key order the [tree.BinaryTree] contract
// requires.
func (s *Store) Open(_ context.Context, name string) (tree.BinaryTree, error) {
	// TODO: consider creating a separate table partition for each tree
	return &handle{
		db:   s.DB,
		name: name,
	}, nil
}
