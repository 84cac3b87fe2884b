// Package memorytree provides an in-memory implementation of
// [tree.BinaryStore], intended for testing and as the reference
// implementation of the store contract.
package memorytree

import (
	"context"
	"sync"

	"github.com/dogmatiq/treekit/tree"
)

// Store is an in-memory implementation of [tree.BinaryStore].
//
// The zero value is ready for use. All trees opened from the same Store
// share its state; trees opened from different stores are unrelated.
type Store struct {
	// BeforeInsert, if non-nil, is called before a pair is inserted.
	BeforeInsert func(t string, k, v []byte) error

	// AfterInsert, if non-nil, is called after a pair is inserted.
	AfterInsert func(t string, k, v []byte) error

	trees sync.Map // map[string]*state
}

// Open returns the tree with the given name, creating it if necessary.
func (s *Store) Open(ctx context.Context, name string) (tree.BinaryTree, error) {
	st, ok := s.trees.Load(name)

	if !ok {
		st, _ = s.trees.LoadOrStore(
			name,
			&state{},
		)
	}

	return &handle{
		name:         name,
		state:        st.(*state),
		beforeInsert: s.BeforeInsert,
		afterInsert:  s.AfterInsert,
	}, ctx.Err()
}
