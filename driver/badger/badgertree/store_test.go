package badgertree_test

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	. "github.com/dogmatiq/treekit/driver/badger/badgertree"
	"github.com/dogmatiq/treekit/tree"
)

func TestStore(t *testing.T) {
	opts := badger.
		DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Error(err)
		}
	})

	tree.RunTests(
		t,
		&Store{DB: db},
	)
}
