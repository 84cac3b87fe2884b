package badgertree

import (
	"bytes"
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/dogmatiq/treekit/internal/errorx"
	"github.com/dogmatiq/treekit/tree"
)

// handle is an implementation of [tree.BinaryTree] that accesses one tree's
// prefix within a BadgerDB database.
type handle struct {
	db     *badger.DB
	name   string
	prefix []byte
}

func (h *handle) Name() string {
	return h.name
}

// key returns the database-level key for the tree-level key k.
func (h *handle) key(k []byte) []byte {
	return append(bytes.Clone(h.prefix), k...)
}

// trim strips the tree's prefix from the database-level key dk.
func (h *handle) trim(dk []byte) []byte {
	return dk[len(h.prefix):]
}

func (h *handle) Get(ctx context.Context, k []byte) (v []byte, ok bool, err error) {
	if h.db == nil {
		panic("tree is closed")
	}
	defer errorx.Wrap(&err, "cannot get value from %q tree", h.name)

	err = h.db.View(
		func(tx *badger.Txn) error {
			item, err := tx.Get(h.key(k))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}

			v, err = item.ValueCopy(nil)
			ok = err == nil

			return err
		},
	)
	if err != nil {
		return nil, false, err
	}

	return v, ok, ctx.Err()
}

func (h *handle) Insert(ctx context.Context, k, v []byte) (prev []byte, ok bool, err error) {
	if h.db == nil {
		panic("tree is closed")
	}
	defer errorx.Wrap(&err, "cannot insert value into %q tree", h.name)

	err = h.db.Update(
		func(tx *badger.Txn) error {
			dk := h.key(k)

			item, err := tx.Get(dk)
			if err == nil {
				prev, err = item.ValueCopy(nil)
				if err != nil {
					return err
				}
				ok = true
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			return tx.Set(dk, v)
		},
	)
	if err != nil {
		return nil, false, err
	}

	return prev, ok, ctx.Err()
}

func (h *handle) Remove(ctx context.Context, k []byte) (prev []byte, ok bool, err error) {
	if h.db == nil {
		panic("tree is closed")
	}
	defer errorx.Wrap(&err, "cannot remove key from %q tree", h.name)

	err = h.db.Update(
		func(tx *badger.Txn) error {
			dk := h.key(k)

			item, err := tx.Get(dk)
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}

			prev, err = item.ValueCopy(nil)
			if err != nil {
				return err
			}
			ok = true

			return tx.Delete(dk)
		},
	)
	if err != nil {
		return nil, false, err
	}

	return prev, ok, ctx.Err()
}

func (h *handle) Has(ctx context.Context, k []byte) (ok bool, err error) {
	if h.db == nil {
		panic("tree is closed")
	}
	defer errorx.Wrap(&err, "cannot check for key in %q tree", h.name)

	err = h.db.View(
		func(tx *badger.Txn) error {
			_, err := tx.Get(h.key(k))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}

			ok = true
			return nil
		},
	)
	if err != nil {
		return false, err
	}

	return ok, ctx.Err()
}

func (h *handle) First(ctx context.Context) (k, v []byte, ok bool, err error) {
	if h.db == nil {
		panic("tree is closed")
	}
	defer errorx.Wrap(&err, "cannot get first pair of %q tree", h.name)

	err = h.db.View(
		func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = h.prefix
			opts.PrefetchSize = 1

			it := tx.NewIterator(opts)
			defer it.Close()

			it.Rewind()
			if !it.Valid() {
				return nil
			}

			k, v, err = h.pair(it.Item())
			ok = err == nil

			return err
		},
	)
	if err != nil {
		return nil, nil, false, err
	}

	return k, v, ok, ctx.Err()
}

func (h *handle) Last(ctx context.Context) (k, v []byte, ok bool, err error) {
	if h.db == nil {
		panic("tree is closed")
	}
	defer errorx.Wrap(&err, "cannot get last pair of %q tree", h.name)

	err = h.db.View(
		func(tx *badger.Txn) error {
			it := h.newReverseIterator(tx)
			defer it.Close()

			h.seekLast(it)
			if !h.valid(it) {
				return nil
			}

			k, v, err = h.pair(it.Item())
			ok = err == nil

			return err
		},
	)
	if err != nil {
		return nil, nil, false, err
	}

	return k, v, ok, ctx.Err()
}

func (h *handle) PopMax(ctx context.Context) (k, v []byte, ok bool, err error) {
	if h.db == nil {
		panic("tree is closed")
	}
	defer errorx.Wrap(&err, "cannot pop largest pair of %q tree", h.name)

	err = h.db.Update(
		func(tx *badger.Txn) error {
			it := h.newReverseIterator(tx)

			h.seekLast(it)
			if !h.valid(it) {
				it.Close()
				return nil
			}

			item := it.Item()
			dk := item.KeyCopy(nil)

			k, v, err = h.pair(item)
			it.Close()

			if err != nil {
				return err
			}
			ok = true

			return tx.Delete(dk)
		},
	)
	if err != nil {
		return nil, nil, false, err
	}

	return k, v, ok, ctx.Err()
}

func (h *handle) Len(ctx context.Context) (n uint64, err error) {
	if h.db == nil {
		panic("tree is closed")
	}
	defer errorx.Wrap(&err, "cannot count pairs of %q tree", h.name)

	err = h.db.View(
		func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = h.prefix
			opts.PrefetchValues = false

			it := tx.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				n++
			}

			return nil
		},
	)
	if err != nil {
		return 0, err
	}

	return n, ctx.Err()
}

func (h *handle) Clear(ctx context.Context) (err error) {
	if h.db == nil {
		panic("tree is closed")
	}
	defer errorx.Wrap(&err, "cannot clear %q tree", h.name)

	if err := h.db.DropPrefix(h.prefix); err != nil {
		return err
	}

	return ctx.Err()
}

func (h *handle) Range(
	ctx context.Context,
	iv tree.Interval[[]byte],
	o tree.Order,
	fn tree.BinaryRangeFunc,
) error {
	if h.db == nil {
		panic("tree is closed")
	}

	if o == tree.Descending {
		return h.rangeDescending(ctx, iv, fn)
	}
	return h.rangeAscending(ctx, iv, fn)
}

func (h *handle) rangeAscending(
	ctx context.Context,
	iv tree.Interval[[]byte],
	fn tree.BinaryRangeFunc,
) error {
	return h.db.View(
		func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = h.prefix

			it := tx.NewIterator(opts)
			defer it.Close()

			if iv.Begin.IsUnbounded() {
				it.Rewind()
			} else {
				it.Seek(h.key(iv.Begin.Value()))
				if iv.Begin.IsExclusive() &&
					it.Valid() &&
					bytes.Equal(h.trim(it.Item().Key()), iv.Begin.Value()) {
					it.Next()
				}
			}

			for ; it.Valid(); it.Next() {
				k, v, err := h.pair(it.Item())
				if err != nil {
					return err
				}

				if !iv.End.IsUnbounded() {
					cmp := bytes.Compare(k, iv.End.Value())
					if cmp > 0 || (cmp == 0 && iv.End.IsExclusive()) {
						return nil
					}
				}

				ok, err := fn(ctx, k, v)
				if !ok || err != nil {
					return err
				}
			}

			return nil
		},
	)
}

func (h *handle) rangeDescending(
	ctx context.Context,
	iv tree.Interval[[]byte],
	fn tree.BinaryRangeFunc,
) error {
	return h.db.View(
		func(tx *badger.Txn) error {
			it := h.newReverseIterator(tx)
			defer it.Close()

			if iv.End.IsUnbounded() {
				h.seekLast(it)
			} else {
				// A reverse seek positions the iterator at the largest key
				// that is less than or equal to the target.
				it.Seek(h.key(iv.End.Value()))
				if iv.End.IsExclusive() &&
					h.valid(it) &&
					bytes.Equal(h.trim(it.Item().Key()), iv.End.Value()) {
					it.Next()
				}
			}

			for ; h.valid(it); it.Next() {
				k, v, err := h.pair(it.Item())
				if err != nil {
					return err
				}

				if !iv.Begin.IsUnbounded() {
					cmp := bytes.Compare(k, iv.Begin.Value())
					if cmp < 0 || (cmp == 0 && iv.Begin.IsExclusive()) {
						return nil
					}
				}

				ok, err := fn(ctx, k, v)
				if !ok || err != nil {
					return err
				}
			}

			return nil
		},
	)
}

func (h *handle) Close() error {
	if h.db == nil {
		return errors.New("tree is already closed")
	}

	h.db = nil

	return nil
}

// pair extracts the tree-level key and value from a database item.
func (h *handle) pair(item *badger.Item) (k, v []byte, err error) {
	k = h.trim(item.KeyCopy(nil))
	v, err = item.ValueCopy(nil)
	return k, v, err
}

// newReverseIterator returns a descending iterator over the entire database.
//
// The tree's prefix is deliberately not set on the iterator options; a
// reverse iterator must be seeded by seeking past the end of the prefix's
// key range, and a prefix-constrained iterator reports the seek target
// itself as invalid. Callers filter with [handle.valid] instead.
func (h *handle) newReverseIterator(tx *badger.Txn) *badger.Iterator {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	return tx.NewIterator(opts)
}

// valid returns true if the iterator is positioned at a pair belonging to
// this tree.
func (h *handle) valid(it *badger.Iterator) bool {
	return it.ValidForPrefix(h.prefix)
}

// seekLast positions a reverse iterator at the largest key in the tree.
func (h *handle) seekLast(it *badger.Iterator) {
	succ, ok := prefixSuccessor(h.prefix)
	if !ok {
		// The prefix is the largest representable, so the tree's keys end
		// the database's key range.
		it.Rewind()
		return
	}

	it.Seek(succ)
	if it.Valid() && bytes.Equal(it.Item().Key(), succ) {
		it.Next()
	}
}
