package tree

import (
	"errors"
	"fmt"

	"github.com/dogmatiq/treekit/codec"
)

// ModeMismatchError is returned by [Open] if the codecs supplied by the
// caller belong to a different mode than the one persisted in the tree.
//
// The persisted mode is authoritative (see [Negotiate]); binding codecs of
// another mode would silently reinterpret the tree's bytes under an
// incompatible encoding, so the binding is refused instead.
type ModeMismatchError struct {
	// Tree is the name of the tree being opened.
	Tree string

	// Persisted is the mode recorded in the tree's mode marker.
	Persisted codec.Mode

	// Requested is the mode of the codecs supplied by the caller.
	Requested codec.Mode
}

func (e ModeMismatchError) Error() string {
	return fmt.Sprintf(
		"the %q tree is persisted in %s mode, but the supplied codecs are %s mode",
		e.Tree,
		e.Persisted,
		e.Requested,
	)
}

// IsModeMismatch returns true if err is caused by a [ModeMismatchError].
func IsModeMismatch(err error) bool {
	return errors.As(err, &ModeMismatchError{})
}
