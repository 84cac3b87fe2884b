package tree_test

import (
	"bytes"
	"testing"

	"github.com/dogmatiq/treekit/driver/memory/memorytree"
	. "github.com/dogmatiq/treekit/tree"
)

func TestWithNamePrefix(t *testing.T) {
	var underlying memorytree.Store

	store := WithNamePrefix(&underlying, "prefix-")

	tr, err := store.Open(t.Context(), "test")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("it adds the prefix to the name", func(t *testing.T) {
		want := []byte("<value>")

		if _, _, err := tr.Insert(t.Context(), []byte("<key>"), want); err != nil {
			t.Fatal(err)
		}

		u, err := underlying.Open(t.Context(), "prefix-test")
		if err != nil {
			t.Fatal(err)
		}

		got, ok, err := u.Get(t.Context(), []byte("<key>"))
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected the key to be present")
		}

		if !bytes.Equal(got, want) {
			t.Errorf("unexpected value: got %q, want %q", string(got), string(want))
		}
	})

	t.Run("it reports the unprefixed name", func(t *testing.T) {
		if got, want := tr.Name(), "test"; got != want {
			t.Errorf("unexpected name: got %q, want %q", got, want)
		}
	})
}
