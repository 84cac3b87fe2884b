package tree

import (
	"context"

	"github.com/dogmatiq/treekit/codec"
)

// The functions in this file form the "relaxed" tier of the API: every call
// takes explicit codecs and type parameters, and nothing binds a tree handle
// to a particular pair of types. They can fail at decode time if the bytes
// in the tree were not written as the requested types; [Tree] is recommended
// instead when a tree holds a single pair of types.

// Get returns the value associated with k, decoded as V.
//
// It returns ok == false if k is not present; a present value that does not
// decode as V is an error.
func Get[K, V any](
	ctx context.Context,
	t BinaryTree,
	kc codec.Codec[K],
	vc codec.Codec[V],
	k K,
) (v V, ok bool, err error) {
	var zero V

	keyData, err := kc.Encode(k)
	if err != nil {
		return zero, false, err
	}

	valueData, ok, err := t.Get(ctx, keyData)
	if !ok || err != nil {
		return zero, false, err
	}

	v, err = vc.Decode(valueData)
	if err != nil {
		return zero, false, err
	}

	return v, true, nil
}

// Insert associates v with k, returning the previous value, if any.
//
// The previous value is decoded with vc, the codec for the value being
// inserted. This is only sound if the value type associated with a given key
// never changes across calls; that is caller discipline, not a guarantee
// made by this layer.
func Insert[K, V any](
	ctx context.Context,
	t BinaryTree,
	kc codec.Codec[K],
	vc codec.Codec[V],
	k K,
	v V,
) (prev V, ok bool, err error) {
	var zero V

	keyData, err := kc.Encode(k)
	if err != nil {
		return zero, false, err
	}

	valueData, err := vc.Encode(v)
	if err != nil {
		return zero, false, err
	}

	prevData, ok, err := t.Insert(ctx, keyData, valueData)
	if !ok || err != nil {
		return zero, false, err
	}

	prev, err = vc.Decode(prevData)
	if err != nil {
		return zero, false, err
	}

	return prev, true, nil
}

// Remove removes k from the tree, returning the value it had, if any.
func Remove[K, V any](
	ctx context.Context,
	t BinaryTree,
	kc codec.Codec[K],
	vc codec.Codec[V],
	k K,
) (prev V, ok bool, err error) {
	var zero V

	keyData, err := kc.Encode(k)
	if err != nil {
		return zero, false, err
	}

	prevData, ok, err := t.Remove(ctx, keyData)
	if !ok || err != nil {
		return zero, false, err
	}

	prev, err = vc.Decode(prevData)
	if err != nil {
		return zero, false, err
	}

	return prev, true, nil
}

// Has returns true if k is present in the tree.
func Has[K any](
	ctx context.Context,
	t BinaryTree,
	kc codec.Codec[K],
	k K,
) (bool, error) {
	keyData, err := kc.Encode(k)
	if err != nil {
		return false, err
	}
	return t.Has(ctx, keyData)
}

// First returns the pair with the lexicographically smallest encoded key.
//
// An empty tree yields ok == false; a pair that does not decode as (K, V)
// is an error.
func First[K, V any](
	ctx context.Context,
	t BinaryTree,
	kc codec.Codec[K],
	vc codec.Codec[V],
) (K, V, bool, error) {
	return decodePair(kc, vc)(t.First(ctx))
}

// Last returns the pair with the lexicographically largest encoded key.
func Last[K, V any](
	ctx context.Context,
	t BinaryTree,
	kc codec.Codec[K],
	vc codec.Codec[V],
) (K, V, bool, error) {
	return decodePair(kc, vc)(t.Last(ctx))
}

// PopMax removes and returns the pair with the lexicographically largest
// encoded key.
func PopMax[K, V any](
	ctx context.Context,
	t BinaryTree,
	kc codec.Codec[K],
	vc codec.Codec[V],
) (K, V, bool, error) {
	return decodePair(kc, vc)(t.PopMax(ctx))
}

// GetOrInit returns the value associated with k, inserting the value
// produced by init if k is not present.
//
// It is a read-then-maybe-write sequence, not an atomic operation:
// concurrent callers may both observe the key as absent and both insert,
// with the later write winning.
func GetOrInit[K, V any](
	ctx context.Context,
	t BinaryTree,
	kc codec.Codec[K],
	vc codec.Codec[V],
	k K,
	init func() V,
) (V, error) {
	v, ok, err := Get(ctx, t, kc, vc, k)
	if ok || err != nil {
		return v, err
	}

	v = init()
	if _, _, err := Insert(ctx, t, kc, vc, k, v); err != nil {
		var zero V
		return zero, err
	}

	return v, nil
}

// Range invokes fn for each pair within iv, in encoded-key order per o.
//
// Pairs that do not decode as (K, V) are silently skipped, so that a scan
// over possibly-heterogeneous content degrades gracefully instead of
// aborting on the first unreadable entry. Store errors are still
// propagated.
func Range[K, V any](
	ctx context.Context,
	t BinaryTree,
	kc codec.Codec[K],
	vc codec.Codec[V],
	iv Interval[K],
	o Order,
	fn RangeFunc[K, V],
) error {
	bounds, err := EncodeInterval(kc, iv)
	if err != nil {
		return err
	}

	return t.Range(
		ctx,
		bounds,
		o,
		func(ctx context.Context, k, v []byte) (bool, error) {
			key, err := kc.Decode(k)
			if err != nil {
				return true, nil
			}

			value, err := vc.Decode(v)
			if err != nil {
				return true, nil
			}

			return fn(ctx, key, value)
		},
	)
}

// All invokes fn for each pair in the tree, in encoded-key order per o,
// with the same decode-skip policy as [Range].
func All[K, V any](
	ctx context.Context,
	t BinaryTree,
	kc codec.Codec[K],
	vc codec.Codec[V],
	o Order,
	fn RangeFunc[K, V],
) error {
	return Range(ctx, t, kc, vc, Everything[K](), o, fn)
}

// RangeKeyBytes is like [Range], but ranges over an interval of raw encoded
// keys and passes each key to fn unconverted. It is an escape hatch for
// callers that want to inspect encoded keys directly, such as
// externally-encoded key prefixes. Values are still decoded, with the same
// skip policy as [Range].
func RangeKeyBytes[V any](
	ctx context.Context,
	t BinaryTree,
	vc codec.Codec[V],
	iv Interval[[]byte],
	o Order,
	fn RangeFunc[[]byte, V],
) error {
	return t.Range(
		ctx,
		iv,
		o,
		func(ctx context.Context, k, v []byte) (bool, error) {
			value, err := vc.Decode(v)
			if err != nil {
				return true, nil
			}

			return fn(ctx, k, value)
		},
	)
}

// decodePair adapts a (k, v, ok, err) result from the byte layer into its
// typed equivalent.
func decodePair[K, V any](
	kc codec.Codec[K],
	vc codec.Codec[V],
) func([]byte, []byte, bool, error) (K, V, bool, error) {
	return func(keyData, valueData []byte, ok bool, err error) (K, V, bool, error) {
		var (
			zeroK K
			zeroV V
		)

		if !ok || err != nil {
			return zeroK, zeroV, false, err
		}

		k, err := kc.Decode(keyData)
		if err != nil {
			return zeroK, zeroV, false, err
		}

		v, err := vc.Decode(valueData)
		if err != nil {
			return zeroK, zeroV, false, err
		}

		return k, v, true, nil
	}
}
