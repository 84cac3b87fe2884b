package tree

import (
	"context"
	"fmt"

	"github.com/dogmatiq/treekit/codec"
)

// DB is a handle to an underlying ordered byte store from which trees are
// opened.
//
// All trees opened from the same DB share the same store instance. The DB
// itself is safe for use by concurrent callers; the store serializes at the
// key level.
type DB struct {
	// Store is the underlying ordered byte store.
	Store BinaryStore

	// Mode is the serializer mode requested when opening trees that do not
	// yet carry a persisted mode marker. A tree that already carries a
	// marker keeps its persisted mode regardless of this value.
	Mode codec.Mode
}

// OpenBinary idempotently opens the named tree, negotiates its serializer
// mode, and returns the raw handle together with the negotiated mode.
//
// The returned handle is suitable for use with the relaxed package-level
// functions, which take codecs per call.
func (db *DB) OpenBinary(ctx context.Context, name string) (BinaryTree, codec.Mode, error) {
	t, err := db.Store.Open(ctx, name)
	if err != nil {
		return nil, 0, err
	}

	m, err := Negotiate(ctx, t, db.Mode)
	if err != nil {
		t.Close()
		return nil, 0, err
	}

	return t, m, nil
}

// Open opens the named tree as a type-strict [Tree] bound to kc and vc.
//
// The supplied codecs must agree on a mode, which becomes the requested mode
// for negotiation; if the tree already carries a different persisted mode,
// the tree is closed and a [ModeMismatchError] is returned.
func Open[K, V any](
	ctx context.Context,
	db *DB,
	name string,
	kc codec.Codec[K],
	vc codec.Codec[V],
) (*Tree[K, V], error) {
	// The codecs must agree on a mode before anything is negotiated,
	// otherwise a failed open of a fresh tree would persist a marker the
	// caller never intended.
	requested := kc.Mode()
	if vm := vc.Mode(); vm != requested {
		return nil, fmt.Errorf(
			"cannot open the %q tree: the key codec is %s mode, but the value codec is %s mode",
			name,
			requested,
			vm,
		)
	}

	t, err := db.Store.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	m, err := Negotiate(ctx, t, requested)
	if err != nil {
		t.Close()
		return nil, err
	}

	if m != requested {
		t.Close()
		return nil, ModeMismatchError{
			Tree:      name,
			Persisted: m,
			Requested: requested,
		}
	}

	return New(t, kc, vc), nil
}
