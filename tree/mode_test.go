package tree_test

import (
	"bytes"
	"testing"

	"github.com/dogmatiq/treekit/codec"
	. "github.com/dogmatiq/treekit/tree"
)

func TestNegotiate(t *testing.T) {
	t.Parallel()

	t.Run("it persists the requested mode if no marker exists", func(t *testing.T) {
		t.Parallel()

		tr := setupBinary(t)

		m, err := Negotiate(t.Context(), tr, codec.ModeJSON)
		if err != nil {
			t.Fatal(err)
		}
		if m != codec.ModeJSON {
			t.Fatalf("unexpected mode: got %s, want %s", m, codec.ModeJSON)
		}

		data, ok, err := tr.Get(t.Context(), ModeKey)
		if err != nil {
			t.Fatal(err)
		}
		if !ok || !bytes.Equal(data, []byte{byte(codec.ModeJSON)}) {
			t.Fatalf("unexpected marker: got (%v, %t)", data, ok)
		}
	})

	t.Run("the persisted mode wins over the requested mode", func(t *testing.T) {
		t.Parallel()

		tr := setupBinary(t)

		if _, err := Negotiate(t.Context(), tr, codec.ModeJSON); err != nil {
			t.Fatal(err)
		}

		m, err := Negotiate(t.Context(), tr, codec.ModeBinary)
		if err != nil {
			t.Fatal(err)
		}
		if m != codec.ModeJSON {
			t.Fatalf("unexpected mode: got %s, want %s", m, codec.ModeJSON)
		}
	})

	t.Run("it overwrites an unrecognized tag with the requested mode", func(t *testing.T) {
		t.Parallel()

		tr := setupBinary(t)

		if _, _, err := tr.Insert(t.Context(), ModeKey, []byte{0xff}); err != nil {
			t.Fatal(err)
		}

		m, err := Negotiate(t.Context(), tr, codec.ModeBinary)
		if err != nil {
			t.Fatal(err)
		}
		if m != codec.ModeBinary {
			t.Fatalf("unexpected mode: got %s, want %s", m, codec.ModeBinary)
		}

		data, _, err := tr.Get(t.Context(), ModeKey)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(data, []byte{byte(codec.ModeBinary)}) {
			t.Fatalf("unexpected marker: got %v", data)
		}
	})

	t.Run("the marker is visible to whole-tree operations", func(t *testing.T) {
		t.Parallel()

		tr := setupBinary(t)

		if _, err := Negotiate(t.Context(), tr, codec.ModeBinary); err != nil {
			t.Fatal(err)
		}

		n, err := tr.Len(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Fatalf("unexpected length: got %d, want 1", n)
		}
	})
}
