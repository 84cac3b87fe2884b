package tree

import (
	"context"

	"github.com/dogmatiq/treekit/codec"
)

// ModeKey is the reserved key under which a tree persists the tag byte of
// the [codec.Mode] that wrote its contents.
//
// Application keys must not collide with it; treat it as a reserved
// namespace. Once a mode has been persisted the reserved entry is visible to
// whole-tree operations such as [BinaryTree.Len] and [BinaryTree.First],
// although bulk iteration usually hides it via the decode-skip policy.
var ModeKey = []byte("_treekit/serializer-mode")

// Negotiate resolves the serializer mode of a tree against its persisted
// mode marker.
//
// If the tree carries a recognized mode tag, that mode is returned and
// requested is ignored: the persisted mode is authoritative for the lifetime
// of the tree on disk, so that one store never mixes incompatible
// encodings. If the marker is absent, or present but unrecognized,
// requested is persisted and returned.
//
// Overwriting an unrecognized tag mirrors the behavior of absent markers,
// but it means data written under a mode this build does not know is
// silently reinterpreted under the requested one. Callers that need to
// detect this can compare the result against the requested mode.
//
// Any store error while reading or writing the marker is propagated.
func Negotiate(ctx context.Context, t BinaryTree, requested codec.Mode) (codec.Mode, error) {
	data, ok, err := t.Get(ctx, ModeKey)
	if err != nil {
		return 0, err
	}

	if ok && len(data) > 0 {
		if m := codec.Mode(data[0]); m.IsValid() {
			return m, nil
		}
	}

	if _, _, err := t.Insert(ctx, ModeKey, []byte{byte(requested)}); err != nil {
		return 0, err
	}

	return requested, nil
}
