// Package tree provides a typed access layer over ordered byte-keyed stores.
//
// The underlying store holds raw byte sequences ordered lexicographically;
// this package layers codecs, typed range queries and serializer-mode
// negotiation on top of the [BinaryStore] contract implemented by the
// drivers.
package tree

import "context"

// Order is the direction in which a range operation visits keys.
type Order int

const (
	// Ascending visits keys from lexicographically smallest to largest.
	Ascending Order = iota

	// Descending visits keys from lexicographically largest to smallest.
	Descending
)

// A BinaryRangeFunc is a function used to range over the key/value pairs in
// a [BinaryTree].
//
// If err is non-nil, ranging stops and err is propagated up the stack.
// Otherwise, if ok is false, ranging stops without any error being
// propagated.
type BinaryRangeFunc func(ctx context.Context, k, v []byte) (ok bool, err error)

// A RangeFunc is the typed equivalent of [BinaryRangeFunc].
type RangeFunc[K, V any] func(ctx context.Context, k K, v V) (ok bool, err error)

// A BinaryTree is one named, ordered collection of binary key/value pairs.
//
// It is the contract this package requires of the underlying store. All
// operations must report I/O failure distinctly from absence: an absent key
// is signalled by ok == false, never by an error or a zero-length value.
// Values may be empty but present.
//
// Implementations must provide per-key atomicity for Get, Insert and Remove,
// but no atomicity across calls. Iteration observes a live view of the tree
// unless the implementation documents snapshot isolation of its own.
type BinaryTree interface {
	// Name returns the name of the tree.
	Name() string

	// Get returns the value associated with k.
	Get(ctx context.Context, k []byte) (v []byte, ok bool, err error)

	// Insert associates v with k, returning the previous value, if any.
	Insert(ctx context.Context, k, v []byte) (prev []byte, ok bool, err error)

	// Remove removes k, returning the value it had, if any.
	Remove(ctx context.Context, k []byte) (prev []byte, ok bool, err error)

	// Has returns true if k is present in the tree.
	Has(ctx context.Context, k []byte) (bool, error)

	// First returns the pair with the lexicographically smallest key.
	First(ctx context.Context) (k, v []byte, ok bool, err error)

	// Last returns the pair with the lexicographically largest key.
	Last(ctx context.Context) (k, v []byte, ok bool, err error)

	// PopMax removes and returns the pair with the lexicographically
	// largest key.
	PopMax(ctx context.Context) (k, v []byte, ok bool, err error)

	// Len returns the number of pairs in the tree.
	Len(ctx context.Context) (uint64, error)

	// Clear removes all pairs from the tree.
	Clear(ctx context.Context) error

	// Range invokes fn for each pair within iv, in key order per o.
	// Ranging over [Everything] visits the entire tree.
	Range(ctx context.Context, iv Interval[[]byte], o Order, fn BinaryRangeFunc) error

	// Close closes the tree handle. It does not affect other handles to
	// the same tree, nor the stored data.
	Close() error
}

// BinaryStore is a collection of named [BinaryTree] values within a single
// underlying store.
//
// Opening the same name twice returns two independent handles over the same
// underlying data; they observe each other's writes.
type BinaryStore interface {
	// Open returns the tree with the given name, creating it if necessary.
	Open(ctx context.Context, name string) (BinaryTree, error)
}
