package tree

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/dogmatiq/treekit/internal/x/xtesting"
	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

// RunTests runs tests that confirm a [BinaryStore] implementation behaves
// correctly.
func RunTests(
	t *testing.T,
	store BinaryStore,
) {
	setup := func(t *testing.T) BinaryTree {
		name := xtesting.SequentialName("tree")

		tr, err := store.Open(t.Context(), name)
		if err != nil {
			t.Fatal(err)
		}

		t.Cleanup(func() {
			if err := tr.Close(); err != nil {
				t.Error(err)
			}
		})

		if tr.Name() != name {
			t.Fatalf("unexpected tree name: got %q, want %q", tr.Name(), name)
		}

		return tr
	}

	// populate inserts pairs with single-byte keys n and values <value-n>.
	populate := func(t *testing.T, tr BinaryTree, keys ...byte) {
		for _, k := range keys {
			if _, _, err := tr.Insert(
				t.Context(),
				[]byte{k},
				[]byte(fmt.Sprintf("<value-%d>", k)),
			); err != nil {
				t.Fatal(err)
			}
		}
	}

	t.Run("Store", func(t *testing.T) {
		t.Parallel()

		t.Run("Open", func(t *testing.T) {
			t.Parallel()

			t.Run("allows trees to be opened multiple times", func(t *testing.T) {
				t.Parallel()

				name := xtesting.SequentialName("shared-tree")

				t1, err := store.Open(t.Context(), name)
				if err != nil {
					t.Fatal(err)
				}
				defer t1.Close()

				t2, err := store.Open(t.Context(), name)
				if err != nil {
					t.Fatal(err)
				}
				defer t2.Close()

				expect := []byte("<value>")
				if _, _, err := t1.Insert(t.Context(), []byte("<key>"), expect); err != nil {
					t.Fatal(err)
				}

				actual, ok, err := t2.Get(t.Context(), []byte("<key>"))
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					t.Fatal("expected the key to be present via the second handle")
				}

				if !bytes.Equal(expect, actual) {
					t.Fatalf(
						"unexpected value, want %q, got %q",
						string(expect),
						string(actual),
					)
				}
			})
		})
	})

	t.Run("Tree", func(t *testing.T) {
		t.Parallel()

		t.Run("Get", func(t *testing.T) {
			t.Parallel()

			t.Run("it reports absence if the key doesn't exist", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)

				_, ok, err := tr.Get(t.Context(), []byte("<key>"))
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					t.Fatal("did not expect the key to be present")
				}
			})

			t.Run("it distinguishes an empty value from absence", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)

				if _, _, err := tr.Insert(t.Context(), []byte("<key>"), nil); err != nil {
					t.Fatal(err)
				}

				v, ok, err := tr.Get(t.Context(), []byte("<key>"))
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					t.Fatal("expected the key to be present")
				}
				if len(v) != 0 {
					t.Fatalf("expected an empty value, got %q", string(v))
				}
			})

			t.Run("it returns the value if the key exists", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)
				populate(t, tr, 0, 1, 2, 3, 4)

				for i := byte(0); i < 5; i++ {
					expect := []byte(fmt.Sprintf("<value-%d>", i))

					actual, ok, err := tr.Get(t.Context(), []byte{i})
					if err != nil {
						t.Fatal(err)
					}
					if !ok {
						t.Fatalf("expected key %d to be present", i)
					}

					if !bytes.Equal(expect, actual) {
						t.Fatalf(
							"unexpected value, want %q, got %q",
							string(expect),
							string(actual),
						)
					}
				}
			})

			t.Run("it does not return its internal byte slice", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)

				k := []byte("<key>")

				if _, _, err := tr.Insert(t.Context(), k, []byte("<value>")); err != nil {
					t.Fatal(err)
				}

				v, _, err := tr.Get(t.Context(), k)
				if err != nil {
					t.Fatal(err)
				}

				v[0] = 'X'

				actual, _, err := tr.Get(t.Context(), k)
				if err != nil {
					t.Fatal(err)
				}

				if !bytes.Equal([]byte("<value>"), actual) {
					t.Fatal("mutating a returned value affected the stored value")
				}
			})
		})

		t.Run("Insert", func(t *testing.T) {
			t.Parallel()

			t.Run("it reports no previous value for a new key", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)

				_, ok, err := tr.Insert(t.Context(), []byte("<key>"), []byte("<value>"))
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					t.Fatal("did not expect a previous value")
				}
			})

			t.Run("it returns the previous value when overwriting", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)

				k := []byte("<key>")

				if _, _, err := tr.Insert(t.Context(), k, []byte("<value-1>")); err != nil {
					t.Fatal(err)
				}

				prev, ok, err := tr.Insert(t.Context(), k, []byte("<value-2>"))
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					t.Fatal("expected a previous value")
				}
				if !bytes.Equal([]byte("<value-1>"), prev) {
					t.Fatalf("unexpected previous value: got %q", string(prev))
				}

				v, _, err := tr.Get(t.Context(), k)
				if err != nil {
					t.Fatal(err)
				}
				if !bytes.Equal([]byte("<value-2>"), v) {
					t.Fatalf("unexpected value after overwrite: got %q", string(v))
				}
			})
		})

		t.Run("Remove", func(t *testing.T) {
			t.Parallel()

			t.Run("it reports absence if the key doesn't exist", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)

				_, ok, err := tr.Remove(t.Context(), []byte("<key>"))
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					t.Fatal("did not expect the key to be present")
				}
			})

			t.Run("it removes the key and returns its value", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)

				k := []byte("<key>")

				if _, _, err := tr.Insert(t.Context(), k, []byte("<value>")); err != nil {
					t.Fatal(err)
				}

				prev, ok, err := tr.Remove(t.Context(), k)
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					t.Fatal("expected the key to be present")
				}
				if !bytes.Equal([]byte("<value>"), prev) {
					t.Fatalf("unexpected removed value: got %q", string(prev))
				}

				ok, err = tr.Has(t.Context(), k)
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					t.Fatal("expected the key to be absent after removal")
				}
			})
		})

		t.Run("First and Last", func(t *testing.T) {
			t.Parallel()

			t.Run("they report absence on an empty tree", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)

				if _, _, ok, err := tr.First(t.Context()); err != nil {
					t.Fatal(err)
				} else if ok {
					t.Fatal("did not expect a first pair")
				}

				if _, _, ok, err := tr.Last(t.Context()); err != nil {
					t.Fatal(err)
				} else if ok {
					t.Fatal("did not expect a last pair")
				}
			})

			t.Run("they return the extremes in byte order, regardless of insertion order", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)
				populate(t, tr, 2, 3, 1)

				k, _, ok, err := tr.First(t.Context())
				if err != nil {
					t.Fatal(err)
				}
				if !ok || !bytes.Equal(k, []byte{1}) {
					t.Fatalf("unexpected first key: got %v", k)
				}

				k, _, ok, err = tr.Last(t.Context())
				if err != nil {
					t.Fatal(err)
				}
				if !ok || !bytes.Equal(k, []byte{3}) {
					t.Fatalf("unexpected last key: got %v", k)
				}
			})
		})

		t.Run("PopMax", func(t *testing.T) {
			t.Parallel()

			t.Run("it reports absence on an empty tree", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)

				if _, _, ok, err := tr.PopMax(t.Context()); err != nil {
					t.Fatal(err)
				} else if ok {
					t.Fatal("did not expect a pair")
				}
			})

			t.Run("it removes and returns the largest pair", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)
				populate(t, tr, 1, 2, 4)

				k, v, ok, err := tr.PopMax(t.Context())
				if err != nil {
					t.Fatal(err)
				}
				if !ok || !bytes.Equal(k, []byte{4}) {
					t.Fatalf("unexpected popped key: got %v", k)
				}
				if !bytes.Equal(v, []byte("<value-4>")) {
					t.Fatalf("unexpected popped value: got %q", string(v))
				}

				n, err := tr.Len(t.Context())
				if err != nil {
					t.Fatal(err)
				}
				if n != 2 {
					t.Fatalf("unexpected length after pop: got %d, want 2", n)
				}

				ok, err = tr.Has(t.Context(), []byte{4})
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					t.Fatal("expected the popped key to be absent")
				}
			})
		})

		t.Run("Len and Clear", func(t *testing.T) {
			t.Parallel()

			t.Run("clearing empties the tree", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)
				populate(t, tr, 1, 2, 3)

				if err := tr.Clear(t.Context()); err != nil {
					t.Fatal(err)
				}

				n, err := tr.Len(t.Context())
				if err != nil {
					t.Fatal(err)
				}
				if n != 0 {
					t.Fatalf("unexpected length after clear: got %d, want 0", n)
				}

				if err := tr.Range(
					t.Context(),
					Everything[[]byte](),
					Ascending,
					func(_ context.Context, k, v []byte) (bool, error) {
						return false, fmt.Errorf("unexpected pair (%v, %q)", k, string(v))
					},
				); err != nil {
					t.Fatal(err)
				}
			})

			t.Run("clearing an empty tree is a no-op", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)

				if err := tr.Clear(t.Context()); err != nil {
					t.Fatal(err)
				}
				if err := tr.Clear(t.Context()); err != nil {
					t.Fatal(err)
				}
			})
		})

		t.Run("Range", func(t *testing.T) {
			t.Parallel()

			rangeKeys := func(t *testing.T, tr BinaryTree, iv Interval[[]byte], o Order) [][]byte {
				var keys [][]byte
				if err := tr.Range(
					t.Context(),
					iv,
					o,
					func(_ context.Context, k, _ []byte) (bool, error) {
						keys = append(keys, k)
						return true, nil
					},
				); err != nil {
					t.Fatal(err)
				}
				return keys
			}

			t.Run("it honors each bound shape", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)
				populate(t, tr, 1, 2, 3)

				cases := []struct {
					Name     string
					Interval Interval[[]byte]
					Expect   [][]byte
				}{
					{"everything", Everything[[]byte](), [][]byte{{1}, {2}, {3}}},
					{"inclusive begin", From([]byte{2}), [][]byte{{2}, {3}}},
					{"exclusive begin", Interval[[]byte]{Begin: Exclusive([]byte{2})}, [][]byte{{3}}},
					{"inclusive end", Interval[[]byte]{End: Inclusive([]byte{2})}, [][]byte{{1}, {2}}},
					{"exclusive end", Until([]byte{2}), [][]byte{{1}}},
					{"half-open", Between([]byte{1}, []byte{3}), [][]byte{{1}, {2}}},
					{"empty", Between([]byte{2}, []byte{2}), nil},
				}

				for _, c := range cases {
					if diff := cmp.Diff(c.Expect, rangeKeys(t, tr, c.Interval, Ascending)); diff != "" {
						t.Fatalf("unexpected keys for %s interval (-want +got):\n%s", c.Name, diff)
					}
				}
			})

			t.Run("it ranges in descending order", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)
				populate(t, tr, 1, 2, 3)

				expect := [][]byte{{3}, {2}, {1}}
				if diff := cmp.Diff(expect, rangeKeys(t, tr, Everything[[]byte](), Descending)); diff != "" {
					t.Fatalf("unexpected keys (-want +got):\n%s", diff)
				}

				expect = [][]byte{{2}, {1}}
				if diff := cmp.Diff(expect, rangeKeys(t, tr, Until([]byte{3}), Descending)); diff != "" {
					t.Fatalf("unexpected keys (-want +got):\n%s", diff)
				}
			})

			t.Run("it stops when fn returns false", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)
				populate(t, tr, 1, 2, 3)

				var count int
				if err := tr.Range(
					t.Context(),
					Everything[[]byte](),
					Ascending,
					func(context.Context, []byte, []byte) (bool, error) {
						count++
						return false, nil
					},
				); err != nil {
					t.Fatal(err)
				}

				if count != 1 {
					t.Fatalf("unexpected number of invocations: got %d, want 1", count)
				}
			})

			t.Run("it propagates errors from fn", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)
				populate(t, tr, 1)

				expect := fmt.Errorf("<error>")
				err := tr.Range(
					t.Context(),
					Everything[[]byte](),
					Ascending,
					func(context.Context, []byte, []byte) (bool, error) {
						return false, expect
					},
				)

				if err != expect {
					t.Fatalf("unexpected error: got %v, want %v", err, expect)
				}
			})

			t.Run("it agrees with a model implementation", func(t *testing.T) {
				t.Parallel()

				tr := setup(t)

				rapid.Check(t, func(t *rapid.T) {
					gen := rapid.SliceOfN(rapid.Byte(), 1, 4)

					k := gen.Draw(t, "key")
					v := []byte{gen.Draw(t, "value")[0]}

					if _, _, err := tr.Insert(context.Background(), k, v); err != nil {
						t.Fatal(err)
					}

					begin := gen.Draw(t, "begin")
					end := gen.Draw(t, "end")
					if bytes.Compare(begin, end) > 0 {
						begin, end = end, begin
					}

					var actual [][]byte
					if err := tr.Range(
						context.Background(),
						Between(begin, end),
						Ascending,
						func(_ context.Context, k, _ []byte) (bool, error) {
							actual = append(actual, slices.Clone(k))
							return true, nil
						},
					); err != nil {
						t.Fatal(err)
					}

					// The results must be sorted, unique, and within bounds.
					for i, k := range actual {
						if bytes.Compare(k, begin) < 0 || bytes.Compare(k, end) >= 0 {
							t.Fatalf("key %v outside of [%v, %v)", k, begin, end)
						}
						if i > 0 && bytes.Compare(actual[i-1], k) >= 0 {
							t.Fatalf("keys not in strictly ascending order: %v before %v", actual[i-1], k)
						}
					}
				})
			})
		})
	})
}
