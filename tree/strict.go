package tree

import (
	"context"

	"github.com/dogmatiq/treekit/codec"
)

// A Tree is a type-strict facade over a [BinaryTree]: it binds one key codec
// and one value codec for its lifetime, eliminating the per-call type
// annotations of the relaxed functions.
//
// The binding restricts this handle's API surface only. It does not change
// the bytes on disk and does not prevent another handle from writing
// differently-typed bytes into the same tree; a type mismatch still
// surfaces, at decode time, exactly as it would through the relaxed
// functions.
type Tree[K, V any] struct {
	bin BinaryTree
	kc  codec.Codec[K]
	vc  codec.Codec[V]
}

// New returns a [Tree] that pins kc and vc as t's key and value codecs.
func New[K, V any](t BinaryTree, kc codec.Codec[K], vc codec.Codec[V]) *Tree[K, V] {
	return &Tree[K, V]{t, kc, vc}
}

// Name returns the name of the tree.
func (t *Tree[K, V]) Name() string {
	return t.bin.Name()
}

// Binary returns the underlying binary tree handle.
func (t *Tree[K, V]) Binary() BinaryTree {
	return t.bin
}

// Get returns the value associated with k.
func (t *Tree[K, V]) Get(ctx context.Context, k K) (V, bool, error) {
	return Get(ctx, t.bin, t.kc, t.vc, k)
}

// Insert associates v with k, returning the previous value, if any.
func (t *Tree[K, V]) Insert(ctx context.Context, k K, v V) (V, bool, error) {
	return Insert(ctx, t.bin, t.kc, t.vc, k, v)
}

// Remove removes k from the tree, returning the value it had, if any.
func (t *Tree[K, V]) Remove(ctx context.Context, k K) (V, bool, error) {
	return Remove(ctx, t.bin, t.kc, t.vc, k)
}

// Has returns true if k is present in the tree.
func (t *Tree[K, V]) Has(ctx context.Context, k K) (bool, error) {
	return Has(ctx, t.bin, t.kc, k)
}

// First returns the pair with the smallest encoded key.
func (t *Tree[K, V]) First(ctx context.Context) (K, V, bool, error) {
	return First(ctx, t.bin, t.kc, t.vc)
}

// Last returns the pair with the largest encoded key.
func (t *Tree[K, V]) Last(ctx context.Context) (K, V, bool, error) {
	return Last(ctx, t.bin, t.kc, t.vc)
}

// PopMax removes and returns the pair with the largest encoded key.
func (t *Tree[K, V]) PopMax(ctx context.Context) (K, V, bool, error) {
	return PopMax(ctx, t.bin, t.kc, t.vc)
}

// GetOrInit returns the value associated with k, inserting the value
// produced by init if k is not present. See [GetOrInit] for its concurrency
// caveats.
func (t *Tree[K, V]) GetOrInit(ctx context.Context, k K, init func() V) (V, error) {
	return GetOrInit(ctx, t.bin, t.kc, t.vc, k, init)
}

// Range invokes fn for each pair within iv, in encoded-key order per o,
// with the decode-skip policy of [Range].
func (t *Tree[K, V]) Range(ctx context.Context, iv Interval[K], o Order, fn RangeFunc[K, V]) error {
	return Range(ctx, t.bin, t.kc, t.vc, iv, o, fn)
}

// All invokes fn for each pair in the tree, in encoded-key order per o.
func (t *Tree[K, V]) All(ctx context.Context, o Order, fn RangeFunc[K, V]) error {
	return All(ctx, t.bin, t.kc, t.vc, o, fn)
}

// RangeKeyBytes ranges over an interval of raw encoded keys, passing each
// key to fn unconverted. See [RangeKeyBytes].
func (t *Tree[K, V]) RangeKeyBytes(ctx context.Context, iv Interval[[]byte], o Order, fn RangeFunc[[]byte, V]) error {
	return RangeKeyBytes(ctx, t.bin, t.vc, iv, o, fn)
}

// Len returns the number of pairs in the tree, regardless of their types.
func (t *Tree[K, V]) Len(ctx context.Context) (uint64, error) {
	return t.bin.Len(ctx)
}

// Clear removes all pairs from the tree, regardless of their types.
func (t *Tree[K, V]) Clear(ctx context.Context) error {
	return t.bin.Clear(ctx)
}

// Close closes the underlying tree handle.
func (t *Tree[K, V]) Close() error {
	return t.bin.Close()
}
