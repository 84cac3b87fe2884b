package tree

import "context"

// WithNameTransform returns a [BinaryStore] that uses x to transform the name
// of each tree within s.
//
// [BinaryTree.Name] returns the untransformed name.
func WithNameTransform(
	s BinaryStore,
	x func(string) string,
) BinaryStore {
	return &nameTransformStore{s, x}
}

type nameTransformStore struct {
	BinaryStore
	transform func(string) string
}

func (s *nameTransformStore) Open(ctx context.Context, name string) (BinaryTree, error) {
	t, err := s.BinaryStore.Open(ctx, s.transform(name))
	if err != nil {
		return nil, err
	}

	return &nameTransformTree{t, name}, nil
}

type nameTransformTree struct {
	BinaryTree
	name string
}

func (t *nameTransformTree) Name() string {
	return t.name
}
