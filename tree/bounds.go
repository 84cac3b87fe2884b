package tree

import (
	"fmt"

	"github.com/dogmatiq/treekit/codec"
)

type boundKind int

const (
	unbounded boundKind = iota
	inclusive
	exclusive
)

// A Bound is one endpoint of an [Interval]: unbounded, or a value that is
// included in or excluded from the interval.
type Bound[T any] struct {
	kind  boundKind
	value T
}

// Unbounded returns a [Bound] that does not constrain the interval.
func Unbounded[T any]() Bound[T] {
	return Bound[T]{}
}

// Inclusive returns a [Bound] at v, with v inside the interval.
func Inclusive[T any](v T) Bound[T] {
	return Bound[T]{inclusive, v}
}

// Exclusive returns a [Bound] at v, with v outside the interval.
func Exclusive[T any](v T) Bound[T] {
	return Bound[T]{exclusive, v}
}

// IsUnbounded returns true if the bound does not constrain the interval.
func (b Bound[T]) IsUnbounded() bool { return b.kind == unbounded }

// IsInclusive returns true if the bound's value is inside the interval.
func (b Bound[T]) IsInclusive() bool { return b.kind == inclusive }

// IsExclusive returns true if the bound's value is outside the interval.
func (b Bound[T]) IsExclusive() bool { return b.kind == exclusive }

// Value returns the bound's value. It panics if the bound is unbounded.
func (b Bound[T]) Value() T {
	if b.kind == unbounded {
		panic("bound has no value")
	}
	return b.value
}

func (b Bound[T]) String() string {
	switch b.kind {
	case inclusive:
		return fmt.Sprintf("[%v]", b.value)
	case exclusive:
		return fmt.Sprintf("(%v)", b.value)
	default:
		return "…"
	}
}

// An Interval describes a range of keys with independent begin and end
// bounds.
type Interval[T any] struct {
	Begin, End Bound[T]
}

// Everything returns the interval that contains all keys.
func Everything[T any]() Interval[T] {
	return Interval[T]{}
}

// From returns the interval of keys at or above v.
func From[T any](v T) Interval[T] {
	return Interval[T]{Begin: Inclusive(v)}
}

// Until returns the interval of keys strictly below v.
func Until[T any](v T) Interval[T] {
	return Interval[T]{End: Exclusive(v)}
}

// Between returns the half-open interval of keys at or above begin and
// strictly below end.
func Between[T any](begin, end T) Interval[T] {
	return Interval[T]{Inclusive(begin), Exclusive(end)}
}

func (iv Interval[T]) String() string {
	return fmt.Sprintf("%v .. %v", iv.Begin, iv.End)
}

// EncodeInterval translates a typed interval into the equivalent byte
// interval by encoding the bound values with c.
//
// The bound shape is preserved; unbounded endpoints pass through untouched,
// as there is no value to encode. If encoding either bound fails the whole
// translation fails — there is no partial interval.
func EncodeInterval[T any](c codec.Codec[T], iv Interval[T]) (Interval[[]byte], error) {
	begin, err := encodeBound(c, iv.Begin)
	if err != nil {
		return Interval[[]byte]{}, fmt.Errorf("cannot encode begin bound: %w", err)
	}

	end, err := encodeBound(c, iv.End)
	if err != nil {
		return Interval[[]byte]{}, fmt.Errorf("cannot encode end bound: %w", err)
	}

	return Interval[[]byte]{begin, end}, nil
}

func encodeBound[T any](c codec.Codec[T], b Bound[T]) (Bound[[]byte], error) {
	if b.kind == unbounded {
		return Unbounded[[]byte](), nil
	}

	data, err := c.Encode(b.value)
	if err != nil {
		return Bound[[]byte]{}, err
	}

	return Bound[[]byte]{b.kind, data}, nil
}
