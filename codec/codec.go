// Package codec defines the pluggable encoding layer used to map typed keys
// and values to the byte representation stored in a [tree.BinaryTree].
package codec

import "fmt"

// Mode identifies a family of codecs.
//
// The mode that first writes to a tree is persisted under a reserved key as a
// single tag byte, so that a reopened tree is read with the same encoding
// that wrote it. Tag values are never reused for a different encoding.
type Mode byte

const (
	// ModeBinary is the reference mode: fixed-width big-endian encodings
	// that preserve ordering under lexicographic byte comparison.
	ModeBinary Mode = 0x00

	// ModeJSON encodes values using Go's standard JSON encoding.
	ModeJSON Mode = 0x01

	// ModeProto encodes values as Protocol Buffers messages.
	ModeProto Mode = 0x02
)

// IsValid returns true if m is a recognized mode tag.
func (m Mode) IsValid() bool {
	switch m {
	case ModeBinary, ModeJSON, ModeProto:
		return true
	default:
		return false
	}
}

func (m Mode) String() string {
	switch m {
	case ModeBinary:
		return "binary"
	case ModeJSON:
		return "json"
	case ModeProto:
		return "proto"
	default:
		return fmt.Sprintf("unknown (0x%02x)", byte(m))
	}
}

// A Codec encodes values of type T to bytes and decodes them back.
//
// Encode fails only on values that are not representable in the codec's
// encoding. Decode fails if the data is not a valid encoding of T; decoding
// is the sole point at which a type mismatch between writer and reader is
// detected.
//
// Decode(Encode(v)) must reproduce a value equal to v for every value the
// codec accepts. Codecs used for keys of an ordered type must additionally
// encode such that the typed order is preserved under lexicographic byte
// comparison, because range queries and first/last/pop-max operate on the
// store's native byte order.
type Codec[T any] interface {
	// Mode returns the mode the codec belongs to.
	Mode() Mode

	// Encode returns the byte representation of v.
	Encode(v T) ([]byte, error)

	// Decode reconstructs a value from its byte representation.
	Decode(data []byte) (T, error)
}

// New returns a [Codec] that uses the given functions to encode and decode
// values of type T under mode m.
func New[T any](
	m Mode,
	encode func(T) ([]byte, error),
	decode func([]byte) (T, error),
) Codec[T] {
	return codec[T]{m, encode, decode}
}

type codec[T any] struct {
	mode   Mode
	encode func(T) ([]byte, error)
	decode func([]byte) (T, error)
}

func (c codec[T]) Mode() Mode { return c.mode }
func (c codec[T]) Encode(v T) ([]byte, error) { return c.encode(v) }
func (c codec[T]) Decode(d []byte) (T, error) { return c.decode(d) }
