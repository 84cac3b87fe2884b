package tree_test

import (
	"errors"
	"testing"

	"github.com/dogmatiq/treekit/codec"
	"github.com/dogmatiq/treekit/driver/memory/memorytree"
	. "github.com/dogmatiq/treekit/tree"
)

func TestDB(t *testing.T) {
	t.Parallel()

	setup := func() *DB {
		return &DB{
			Store: &memorytree.Store{},
			Mode:  codec.ModeBinary,
		}
	}

	t.Run("OpenBinary", func(t *testing.T) {
		t.Parallel()

		t.Run("it negotiates the DB's default mode for a new tree", func(t *testing.T) {
			t.Parallel()

			db := setup()

			tr, m, err := db.OpenBinary(t.Context(), "<tree>")
			if err != nil {
				t.Fatal(err)
			}
			defer tr.Close()

			if m != codec.ModeBinary {
				t.Fatalf("unexpected mode: got %s, want %s", m, codec.ModeBinary)
			}
		})

		t.Run("it reports the persisted mode of an existing tree", func(t *testing.T) {
			t.Parallel()

			db := setup()

			tr, err := db.Store.Open(t.Context(), "<tree>")
			if err != nil {
				t.Fatal(err)
			}
			defer tr.Close()

			if _, err := Negotiate(t.Context(), tr, codec.ModeJSON); err != nil {
				t.Fatal(err)
			}

			reopened, m, err := db.OpenBinary(t.Context(), "<tree>")
			if err != nil {
				t.Fatal(err)
			}
			defer reopened.Close()

			if m != codec.ModeJSON {
				t.Fatalf("unexpected mode: got %s, want %s", m, codec.ModeJSON)
			}
		})
	})

	t.Run("Open", func(t *testing.T) {
		t.Parallel()

		t.Run("it binds codecs whose mode matches the tree", func(t *testing.T) {
			t.Parallel()

			db := setup()

			tr, err := Open(t.Context(), db, "<tree>", codec.Uint64, codec.String[string]())
			if err != nil {
				t.Fatal(err)
			}
			defer tr.Close()

			if _, _, err := tr.Insert(t.Context(), 1, "<value>"); err != nil {
				t.Fatal(err)
			}

			v, ok, err := tr.Get(t.Context(), 1)
			if err != nil {
				t.Fatal(err)
			}
			if !ok || v != "<value>" {
				t.Fatalf("unexpected value: got (%q, %t)", v, ok)
			}
		})

		t.Run("it refuses codecs of a different mode than the persisted one", func(t *testing.T) {
			t.Parallel()

			db := setup()

			// Persist binary mode.
			tr, err := Open(t.Context(), db, "<tree>", codec.Uint64, codec.Uint64)
			if err != nil {
				t.Fatal(err)
			}
			if err := tr.Close(); err != nil {
				t.Fatal(err)
			}

			type document struct{}

			_, err = Open(
				t.Context(),
				db,
				"<tree>",
				codec.Uint64,
				codec.JSON[document](),
			)
			if !IsModeMismatch(err) {
				t.Fatalf("unexpected error: %v", err)
			}

			var e ModeMismatchError
			if !errors.As(err, &e) {
				t.Fatal("expected a ModeMismatchError")
			}

			if e.Tree != "<tree>" || e.Persisted != codec.ModeBinary || e.Requested != codec.ModeJSON {
				t.Fatalf("unexpected error detail: %+v", e)
			}
		})

		t.Run("it refuses disagreeing codecs without persisting a mode", func(t *testing.T) {
			t.Parallel()

			db := setup()

			type document struct{}

			if _, err := Open(
				t.Context(),
				db,
				"<tree>",
				codec.Uint64,
				codec.JSON[document](),
			); err == nil {
				t.Fatal("expected an error")
			}

			// The failed open must not leave a mode marker behind; the tree
			// is still free to negotiate JSON on a consistent open.
			tr, err := Open(
				t.Context(),
				db,
				"<tree>",
				codec.JSON[uint64](),
				codec.JSON[document](),
			)
			if err != nil {
				t.Fatal(err)
			}
			defer tr.Close()
		})
	})
}
