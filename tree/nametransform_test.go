package tree_test

import (
	"bytes"
	"testing"

	"github.com/dogmatiq/treekit/driver/memory/memorytree"
	. "github.com/dogmatiq/treekit/tree"
)

func TestWithNameTransform(t *testing.T) {
	var untransformed memorytree.Store

	transformed := WithNameTransform(
		&untransformed,
		func(name string) string {
			return "prefix-" + name
		},
	)

	u, err := untransformed.Open(t.Context(), "prefix-test")
	if err != nil {
		t.Fatal(err)
	}

	x, err := transformed.Open(t.Context(), "test")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("it reports the untransformed name", func(t *testing.T) {
		if got, want := x.Name(), "test"; got != want {
			t.Errorf("unexpected name: got %q, want %q", got, want)
		}
	})

	t.Run("operates on the underlying store with the transformed name", func(t *testing.T) {
		want := []byte("<value>")

		if _, _, err := x.Insert(t.Context(), []byte("<key>"), want); err != nil {
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
}
