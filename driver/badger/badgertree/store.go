// Package badgertree provides an implementation of [tree.BinaryStore] that
// persists trees in a [BadgerDB] database.
//
// [BadgerDB]: https://docs.hypermode.com/badger
package badgertree

import (
	"context"
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"
	"github.com/dogmatiq/treekit/tree"
)

// Store is an implementation of [tree.BinaryStore] that stores trees in a
// BadgerDB database.
//
// All trees share the database's single keyspace. Each pair is stored under
// its tree's prefix, so the database-level key order within one prefix is the
// tree's key order.
type Store struct {
	DB *badger.DB
}

// Open returns the tree with the given name, creating it if necessary.
func (s *Store) Open(ctx context.Context, name string) (tree.BinaryTree, error) {
	return &handle{
		db:     s.DB,
		name:   name,
		prefix: prefix(name),
	}, ctx.Err()
}

// prefix returns the database-level key prefix for the tree with the given
// name. The name is length-prefixed so that no tree's prefix is a prefix of
// another's.
func prefix(name string) []byte {
	p := make([]byte, 2, 2+len(name))
	binary.BigEndian.PutUint16(p, uint16(len(name)))
	return append(p, name...)
}

// prefixSuccessor returns the smallest key that is greater than every key
// with the given prefix. ok is false if no such key exists.
func prefixSuccessor(p []byte) (s []byte, ok bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] != 0xff {
			s = make([]byte, i+1)
			copy(s, p)
			s[i]++
			return s, true
		}
	}
	return nil, false
}
