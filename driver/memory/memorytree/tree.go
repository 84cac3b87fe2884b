package memorytree

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/dogmatiq/treekit/driver/memory/internal/clone"
	"github.com/dogmatiq/treekit/tree"
)

// state is the in-memory state of a tree: its pairs, sorted by key.
type state struct {
	sync.RWMutex
	entries []pair
}

type pair struct {
	k, v []byte
}

// handle is an implementation of [tree.BinaryTree] that manipulates a tree's
// in-memory [state].
type handle struct {
	name         string
	state        *state
	beforeInsert func(t string, k, v []byte) error
	afterInsert  func(t string, k, v []byte) error
}

func (h *handle) Name() string {
	return h.name
}

func (h *handle) Get(ctx context.Context, k []byte) ([]byte, bool, error) {
	if h.state == nil {
		panic("tree is closed")
	}

	h.state.RLock()
	defer h.state.RUnlock()

	i, ok := h.state.search(k)
	if !ok {
		return nil, false, ctx.Err()
	}

	return clone.Clone(h.state.entries[i].v), true, ctx.Err()
}

func (h *handle) Insert(ctx context.Context, k, v []byte) ([]byte, bool, error) {
	if h.state == nil {
		panic("tree is closed")
	}

	k = clone.Clone(k)
	v = clone.Clone(v)

	h.state.Lock()
	defer h.state.Unlock()

	if h.beforeInsert != nil {
		if err := h.beforeInsert(h.name, k, v); err != nil {
			return nil, false, err
		}
	}

	var (
		prev []byte
		ok   bool
	)

	if i, found := h.state.search(k); found {
		prev = h.state.entries[i].v
		ok = true
		h.state.entries[i].v = v
	} else {
		h.state.entries = slices.Insert(h.state.entries, i, pair{k, v})
	}

	if h.afterInsert != nil {
		if err := h.afterInsert(h.name, k, v); err != nil {
			return nil, false, err
		}
	}

	return prev, ok, ctx.Err()
}

func (h *handle) Remove(ctx context.Context, k []byte) ([]byte, bool, error) {
	if h.state == nil {
		panic("tree is closed")
	}

	h.state.Lock()
	defer h.state.Unlock()

	i, ok := h.state.search(k)
	if !ok {
		return nil, false, ctx.Err()
	}

	prev := h.state.entries[i].v
	h.state.entries = slices.Delete(h.state.entries, i, i+1)

	return prev, true, ctx.Err()
}

func (h *handle) Has(ctx context.Context, k []byte) (bool, error) {
	if h.state == nil {
		panic("tree is closed")
	}

	h.state.RLock()
	defer h.state.RUnlock()

	_, ok := h.state.search(k)
	return ok, ctx.Err()
}

func (h *handle) First(ctx context.Context) ([]byte, []byte, bool, error) {
	if h.state == nil {
		panic("tree is closed")
	}

	h.state.RLock()
	defer h.state.RUnlock()

	if len(h.state.entries) == 0 {
		return nil, nil, false, ctx.Err()
	}

	p := h.state.entries[0]
	return clone.Clone(p.k), clone.Clone(p.v), true, ctx.Err()
}

func (h *handle) Last(ctx context.Context) ([]byte, []byte, bool, error) {
	if h.state == nil {
		panic("tree is closed")
	}

	h.state.RLock()
	defer h.state.RUnlock()

	if len(h.state.entries) == 0 {
		return nil, nil, false, ctx.Err()
	}

	p := h.state.entries[len(h.state.entries)-1]
	return clone.Clone(p.k), clone.Clone(p.v), true, ctx.Err()
}

func (h *handle) PopMax(ctx context.Context) ([]byte, []byte, bool, error) {
	if h.state == nil {
		panic("tree is closed")
	}

	h.state.Lock()
	defer h.state.Unlock()

	n := len(h.state.entries)
	if n == 0 {
		return nil, nil, false, ctx.Err()
	}

	p := h.state.entries[n-1]
	h.state.entries = h.state.entries[:n-1]

	return p.k, p.v, true, ctx.Err()
}

func (h *handle) Len(ctx context.Context) (uint64, error) {
	if h.state == nil {
		panic("tree is closed")
	}

	h.state.RLock()
	defer h.state.RUnlock()

	return uint64(len(h.state.entries)), ctx.Err()
}

func (h *handle) Clear(ctx context.Context) error {
	if h.state == nil {
		panic("tree is closed")
	}

	h.state.Lock()
	defer h.state.Unlock()

	h.state.entries = nil

	return ctx.Err()
}

// Range invokes fn for each pair within iv.
//
// It iterates over a snapshot of the tree taken when it is called;
// concurrent writes are not observed. This is stricter than the contract
// requires.
func (h *handle) Range(
	ctx context.Context,
	iv tree.Interval[[]byte],
	o tree.Order,
	fn tree.BinaryRangeFunc,
) error {
	if h.state == nil {
		panic("tree is closed")
	}

	h.state.RLock()
	lo, hi := h.state.bounds(iv)
	entries := slices.Clone(h.state.entries[lo:hi])
	h.state.RUnlock()

	if o == tree.Descending {
		slices.Reverse(entries)
	}

	for _, p := range entries {
		ok, err := fn(ctx, clone.Clone(p.k), clone.Clone(p.v))
		if !ok || err != nil {
			return err
		}
	}

	return ctx.Err()
}

func (h *handle) Close() error {
	if h.state == nil {
		return errors.New("tree is already closed")
	}

	h.state = nil

	return nil
}

// search returns the index of the entry with key k, or the index at which it
// would be inserted.
func (st *state) search(k []byte) (int, bool) {
	i := sort.Search(
		len(st.entries),
		func(i int) bool {
			return bytes.Compare(st.entries[i].k, k) >= 0
		},
	)

	return i, i < len(st.entries) && bytes.Equal(st.entries[i].k, k)
}

// bounds returns the half-open index range of the entries within iv.
func (st *state) bounds(iv tree.Interval[[]byte]) (lo, hi int) {
	hi = len(st.entries)

	if !iv.Begin.IsUnbounded() {
		i, ok := st.search(iv.Begin.Value())
		lo = i
		if ok && iv.Begin.IsExclusive() {
			lo++
		}
	}

	if !iv.End.IsUnbounded() {
		i, ok := st.search(iv.End.Value())
		hi = i
		if ok && iv.End.IsInclusive() {
			hi++
		}
	}

	if hi < lo {
		hi = lo
	}

	return lo, hi
}
