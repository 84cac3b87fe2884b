package tree_test

import (
	"context"
	"testing"

	"github.com/dogmatiq/treekit/codec"
	. "github.com/dogmatiq/treekit/tree"
	"github.com/google/go-cmp/cmp"
)

func TestTree(t *testing.T) {
	t.Parallel()

	bin := setupBinary(t)
	tr := New(bin, codec.Uint64, codec.String[string]())

	if tr.Binary() != bin {
		t.Fatal("expected Binary() to return the underlying handle")
	}

	if _, _, err := tr.Insert(t.Context(), 2, "<value-2>"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := tr.Insert(t.Context(), 1, "<value-1>"); err != nil {
		t.Fatal(err)
	}

	v, ok, err := tr.Get(t.Context(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != "<value-1>" {
		t.Fatalf("unexpected value: got (%q, %t)", v, ok)
	}

	ok, err = tr.Has(t.Context(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected the key to be present")
	}

	k, v, ok, err := tr.First(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if !ok || k != 1 || v != "<value-1>" {
		t.Fatalf("unexpected first pair: got (%d, %q, %t)", k, v, ok)
	}

	k, v, ok, err = tr.PopMax(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if !ok || k != 2 || v != "<value-2>" {
		t.Fatalf("unexpected popped pair: got (%d, %q, %t)", k, v, ok)
	}

	if _, _, err := tr.Insert(t.Context(), 3, "<value-3>"); err != nil {
		t.Fatal(err)
	}

	var keys []uint64
	if err := tr.All(
		t.Context(),
		Ascending,
		func(_ context.Context, k uint64, _ string) (bool, error) {
			keys = append(keys, k)
			return true, nil
		},
	); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]uint64{1, 3}, keys); diff != "" {
		t.Fatalf("unexpected keys (-want +got):\n%s", diff)
	}

	n, err := tr.Len(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("unexpected length: got %d, want 2", n)
	}

	prev, ok, err := tr.Remove(t.Context(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || prev != "<value-1>" {
		t.Fatalf("unexpected removed value: got (%q, %t)", prev, ok)
	}

	if err := tr.Clear(t.Context()); err != nil {
		t.Fatal(err)
	}

	n, err = tr.Len(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("unexpected length after clear: got %d, want 0", n)
	}
}
