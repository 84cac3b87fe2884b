package tree_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/dogmatiq/treekit/codec"
	"github.com/dogmatiq/treekit/driver/memory/memorytree"
	"github.com/dogmatiq/treekit/internal/x/xtesting"
	. "github.com/dogmatiq/treekit/tree"
	"github.com/google/go-cmp/cmp"
)

func setupBinary(t *testing.T) BinaryTree {
	store := &memorytree.Store{}

	tr, err := store.Open(t.Context(), xtesting.UniqueName("tree"))
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := tr.Close(); err != nil {
			t.Error(err)
		}
	})

	return tr
}

func TestGet(t *testing.T) {
	t.Parallel()

	t.Run("it decodes the value associated with the key", func(t *testing.T) {
		t.Parallel()

		tr := setupBinary(t)

		if _, _, err := Insert(
			t.Context(), tr,
			codec.Uint64, codec.String[string](),
			uint64(42), "<value>",
		); err != nil {
			t.Fatal(err)
		}

		v, ok, err := Get(t.Context(), tr, codec.Uint64, codec.String[string](), uint64(42))
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected the key to be present")
		}
		if v != "<value>" {
			t.Fatalf("unexpected value: got %q", v)
		}
	})

	t.Run("it reports absence if the key doesn't exist", func(t *testing.T) {
		t.Parallel()

		tr := setupBinary(t)

		_, ok, err := Get(t.Context(), tr, codec.Uint64, codec.String[string](), uint64(42))
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("did not expect the key to be present")
		}
	})

	t.Run("it propagates a decode failure as an error", func(t *testing.T) {
		t.Parallel()

		tr := setupBinary(t)

		k, err := codec.Uint64.Encode(42)
		if err != nil {
			t.Fatal(err)
		}

		// Not a valid uint64 encoding.
		if _, _, err := tr.Insert(t.Context(), k, []byte("<garbage>")); err != nil {
			t.Fatal(err)
		}

		if _, _, err := Get(t.Context(), tr, codec.Uint64, codec.Uint64, uint64(42)); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestInsert(t *testing.T) {
	t.Parallel()

	t.Run("it returns the decoded previous value when overwriting", func(t *testing.T) {
		t.Parallel()

		tr := setupBinary(t)

		if _, _, err := Insert(
			t.Context(), tr,
			codec.Uint64, codec.String[string](),
			uint64(1), "<value-1>",
		); err != nil {
			t.Fatal(err)
		}

		prev, ok, err := Insert(
			t.Context(), tr,
			codec.Uint64, codec.String[string](),
			uint64(1), "<value-2>",
		)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected a previous value")
		}
		if prev != "<value-1>" {
			t.Fatalf("unexpected previous value: got %q", prev)
		}
	})
}

func TestRemove(t *testing.T) {
	t.Parallel()

	tr := setupBinary(t)

	if _, _, err := Insert(
		t.Context(), tr,
		codec.Uint64, codec.String[string](),
		uint64(1), "<value>",
	); err != nil {
		t.Fatal(err)
	}

	prev, ok, err := Remove[uint64, string](t.Context(), tr, codec.Uint64, codec.String[string](), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || prev != "<value>" {
		t.Fatalf("unexpected removed value: got (%q, %t)", prev, ok)
	}

	ok, err = Has(t.Context(), tr, codec.Uint64, uint64(1))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected the key to be absent after removal")
	}
}

func TestExtremes(t *testing.T) {
	t.Parallel()

	tr := setupBinary(t)

	// Insertion order must not affect the result.
	for _, k := range []uint64{2, 3, 1} {
		if _, _, err := Insert(
			t.Context(), tr,
			codec.Uint64, codec.Uint64,
			k, k*10,
		); err != nil {
			t.Fatal(err)
		}
	}

	k, v, ok, err := First(t.Context(), tr, codec.Uint64, codec.Uint64)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || k != 1 || v != 10 {
		t.Fatalf("unexpected first pair: got (%d, %d, %t)", k, v, ok)
	}

	k, v, ok, err = Last(t.Context(), tr, codec.Uint64, codec.Uint64)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || k != 3 || v != 30 {
		t.Fatalf("unexpected last pair: got (%d, %d, %t)", k, v, ok)
	}

	k, v, ok, err = PopMax(t.Context(), tr, codec.Uint64, codec.Uint64)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || k != 3 || v != 30 {
		t.Fatalf("unexpected popped pair: got (%d, %d, %t)", k, v, ok)
	}

	k, _, ok, err = Last(t.Context(), tr, codec.Uint64, codec.Uint64)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || k != 2 {
		t.Fatalf("unexpected last pair after pop: got (%d, %t)", k, ok)
	}
}

func TestGetOrInit(t *testing.T) {
	t.Parallel()

	t.Run("it inserts the initial value if the key is absent", func(t *testing.T) {
		t.Parallel()

		tr := setupBinary(t)

		v, err := GetOrInit(
			t.Context(), tr,
			codec.Uint64, codec.String[string](),
			uint64(1),
			func() string { return "<initial>" },
		)
		if err != nil {
			t.Fatal(err)
		}
		if v != "<initial>" {
			t.Fatalf("unexpected value: got %q", v)
		}

		got, ok, err := Get(t.Context(), tr, codec.Uint64, codec.String[string](), uint64(1))
		if err != nil {
			t.Fatal(err)
		}
		if !ok || got != "<initial>" {
			t.Fatalf("unexpected stored value: got (%q, %t)", got, ok)
		}
	})

	t.Run("it does not call init if the key is present", func(t *testing.T) {
		t.Parallel()

		tr := setupBinary(t)

		if _, _, err := Insert(
			t.Context(), tr,
			codec.Uint64, codec.String[string](),
			uint64(1), "<existing>",
		); err != nil {
			t.Fatal(err)
		}

		v, err := GetOrInit(
			t.Context(), tr,
			codec.Uint64, codec.String[string](),
			uint64(1),
			func() string {
				t.Fatal("did not expect init to be called")
				return ""
			},
		)
		if err != nil {
			t.Fatal(err)
		}
		if v != "<existing>" {
			t.Fatalf("unexpected value: got %q", v)
		}
	})
}

func TestRange(t *testing.T) {
	t.Parallel()

	t.Run("it ranges over the typed interval in both directions", func(t *testing.T) {
		t.Parallel()

		tr := setupBinary(t)

		for _, k := range []uint64{1, 2, 3, 4} {
			if _, _, err := Insert(
				t.Context(), tr,
				codec.Uint64, codec.Uint64,
				k, k*10,
			); err != nil {
				t.Fatal(err)
			}
		}

		var keys []uint64
		if err := Range(
			t.Context(), tr,
			codec.Uint64, codec.Uint64,
			Between[uint64](2, 4),
			Ascending,
			func(_ context.Context, k, _ uint64) (bool, error) {
				keys = append(keys, k)
				return true, nil
			},
		); err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff([]uint64{2, 3}, keys); diff != "" {
			t.Fatalf("unexpected keys (-want +got):\n%s", diff)
		}

		keys = nil
		if err := All(
			t.Context(), tr,
			codec.Uint64, codec.Uint64,
			Descending,
			func(_ context.Context, k, _ uint64) (bool, error) {
				keys = append(keys, k)
				return true, nil
			},
		); err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff([]uint64{4, 3, 2, 1}, keys); diff != "" {
			t.Fatalf("unexpected keys (-want +got):\n%s", diff)
		}
	})

	t.Run("it silently skips pairs that do not decode", func(t *testing.T) {
		t.Parallel()

		tr := setupBinary(t)

		for _, k := range []uint64{1, 3} {
			if _, _, err := Insert(
				t.Context(), tr,
				codec.Uint64, codec.Uint64,
				k, k*10,
			); err != nil {
				t.Fatal(err)
			}
		}

		// A pair of a different shape, lexicographically between the others.
		k, err := codec.Uint64.Encode(2)
		if err != nil {
			t.Fatal(err)
		}
		if _, _, err := tr.Insert(t.Context(), k, []byte("<garbage>")); err != nil {
			t.Fatal(err)
		}

		var keys []uint64
		if err := All(
			t.Context(), tr,
			codec.Uint64, codec.Uint64,
			Ascending,
			func(_ context.Context, k, _ uint64) (bool, error) {
				keys = append(keys, k)
				return true, nil
			},
		); err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff([]uint64{1, 3}, keys); diff != "" {
			t.Fatalf("unexpected keys (-want +got):\n%s", diff)
		}
	})
}

func TestRangeKeyBytes(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) BinaryTree {
		tr := setupBinary(t)

		for _, k := range []uint64{1, 2, 3} {
			if _, _, err := Insert(
				t.Context(), tr,
				codec.Uint64, codec.Uint64,
				k, k*10,
			); err != nil {
				t.Fatal(err)
			}
		}

		return tr
	}

	encode := func(t *testing.T, k uint64) []byte {
		d, err := codec.Uint64.Encode(k)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}

	collect := func(
		t *testing.T,
		tr BinaryTree,
		iv Interval[[]byte],
	) (keys [][]byte, values []uint64) {
		if err := RangeKeyBytes(
			t.Context(), tr,
			codec.Uint64,
			iv,
			Ascending,
			func(_ context.Context, k []byte, v uint64) (bool, error) {
				keys = append(keys, k)
				values = append(values, v)
				return true, nil
			},
		); err != nil {
			t.Fatal(err)
		}
		return keys, values
	}

	t.Run("from an inclusive raw key", func(t *testing.T) {
		t.Parallel()

		tr := setup(t)
		begin := encode(t, 2)

		keys, values := collect(t, tr, From(begin))

		if len(keys) != 2 || !bytes.Equal(keys[0], begin) {
			t.Fatalf("unexpected raw keys: %v", keys)
		}

		if diff := cmp.Diff([]uint64{20, 30}, values); diff != "" {
			t.Fatalf("unexpected values (-want +got):\n%s", diff)
		}
	})

	t.Run("until an inclusive raw key", func(t *testing.T) {
		t.Parallel()

		tr := setup(t)
		end := encode(t, 2)

		keys, values := collect(t, tr, Until(end))

		if len(keys) != 2 || !bytes.Equal(keys[1], end) {
			t.Fatalf("unexpected raw keys: %v", keys)
		}

		if diff := cmp.Diff([]uint64{10, 20}, values); diff != "" {
			t.Fatalf("unexpected values (-want +got):\n%s", diff)
		}
	})

	t.Run("after an exclusive raw key", func(t *testing.T) {
		t.Parallel()

		tr := setup(t)

		_, values := collect(
			t,
			tr,
			Interval[[]byte]{
				Begin: Exclusive(encode(t, 2)),
				End:   Unbounded[[]byte](),
			},
		)

		if diff := cmp.Diff([]uint64{30}, values); diff != "" {
			t.Fatalf("unexpected values (-want +got):\n%s", diff)
		}
	})
}
