package tree

import "context"

// WithNamePrefix returns a [BinaryStore] that adds the given prefix to all
// tree names.
func WithNamePrefix(store BinaryStore, prefix string) BinaryStore {
	return prefixedStore{store, prefix}
}

// prefixedStore is a [BinaryStore] that adds a prefix to all tree names.
type prefixedStore struct {
	BinaryStore
	prefix string
}

func (s prefixedStore) Open(ctx context.Context, name string) (BinaryTree, error) {
	t, err := s.BinaryStore.Open(ctx, s.prefix+name)
	if err != nil {
		return nil, err
	}

	return prefixedTree{t, name}, nil
}

// prefixedTree is a [BinaryTree] opened by a [prefixedStore].
type prefixedTree struct {
	BinaryTree
	name string
}

func (t prefixedTree) Name() string {
	return t.name
}
