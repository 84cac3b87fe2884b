package tree

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"testing"

	"github.com/dogmatiq/treekit/internal/x/xtesting"
)

// RunBenchmarks runs benchmarks against a [BinaryStore] implementation.
func RunBenchmarks(
	b *testing.B,
	store BinaryStore,
) {
	b.Run("Store", func(b *testing.B) {
		b.Run("Open", func(b *testing.B) {
			b.Run("existing tree", func(b *testing.B) {
				var (
					name string
					tr   BinaryTree
				)

				xtesting.Benchmark(
					b,
					// SETUP
					func(ctx context.Context) error {
						name = xtesting.SequentialName("tree")

						// pre-create the tree
						tr, err := store.Open(ctx, name)
						if err != nil {
							return err
						}
						return tr.Close()
					},
					// BEFORE EACH
					nil,
					// BENCHMARKED CODE
					func(ctx context.Context) (err error) {
						tr, err = store.Open(ctx, name)
						return err
					},
					// AFTER EACH
					func(context.Context) error {
						return tr.Close()
					},
				)
			})

			b.Run("new tree", func(b *testing.B) {
				var (
					name string
					tr   BinaryTree
				)

				xtesting.Benchmark(
					b,
					// SETUP
					nil,
					// BEFORE EACH
					func(context.Context) error {
						name = xtesting.SequentialName("tree")
						return nil
					},
					// BENCHMARKED CODE
					func(ctx context.Context) (err error) {
						tr, err = store.Open(ctx, name)
						return err
					},
					// AFTER EACH
					func(context.Context) error {
						return tr.Close()
					},
				)
			})
		})
	})

	b.Run("Tree", func(b *testing.B) {
		b.Run("Get", func(b *testing.B) {
			b.Run("non-existent key", func(b *testing.B) {
				var key [32]byte

				benchmarkTree(
					b,
					store,
					// SETUP
					nil,
					// BEFORE EACH
					func(context.Context, BinaryTree) error {
						_, err := io.ReadFull(rand.Reader, key[:])
						return err
					},
					// BENCHMARKED CODE
					func(ctx context.Context, tr BinaryTree) error {
						_, _, err := tr.Get(ctx, key[:])
						return err
					},
					// AFTER EACH
					nil,
				)
			})

			b.Run("existing key", func(b *testing.B) {
				var key [32]byte

				benchmarkTree(
					b,
					store,
					// SETUP
					nil,
					// BEFORE EACH
					func(ctx context.Context, tr BinaryTree) error {
						if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
							return err
						}
						_, _, err := tr.Insert(ctx, key[:], []byte("<value>"))
						return err
					},
					// BENCHMARKED CODE
					func(ctx context.Context, tr BinaryTree) error {
						_, _, err := tr.Get(ctx, key[:])
						return err
					},
					// AFTER EACH
					nil,
				)
			})
		})

		b.Run("Insert", func(b *testing.B) {
			b.Run("non-existent key", func(b *testing.B) {
				var key [32]byte

				benchmarkTree(
					b,
					store,
					// SETUP
					nil,
					// BEFORE EACH
					func(context.Context, BinaryTree) error {
						_, err := io.ReadFull(rand.Reader, key[:])
						return err
					},
					// BENCHMARKED CODE
					func(ctx context.Context, tr BinaryTree) error {
						_, _, err := tr.Insert(ctx, key[:], []byte("<value>"))
						return err
					},
					// AFTER EACH
					nil,
				)
			})

			b.Run("existing key", func(b *testing.B) {
				var key [32]byte

				benchmarkTree(
					b,
					store,
					// SETUP
					nil,
					// BEFORE EACH
					func(ctx context.Context, tr BinaryTree) error {
						if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
							return err
						}
						_, _, err := tr.Insert(ctx, key[:], []byte("<value-1>"))
						return err
					},
					// BENCHMARKED CODE
					func(ctx context.Context, tr BinaryTree) error {
						_, _, err := tr.Insert(ctx, key[:], []byte("<value-2>"))
						return err
					},
					// AFTER EACH
					nil,
				)
			})
		})

		b.Run("Remove", func(b *testing.B) {
			var key [32]byte

			benchmarkTree(
				b,
				store,
				// SETUP
				nil,
				// BEFORE EACH
				func(ctx context.Context, tr BinaryTree) error {
					if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
						return err
					}
					_, _, err := tr.Insert(ctx, key[:], []byte("<value>"))
					return err
				},
				// BENCHMARKED CODE
				func(ctx context.Context, tr BinaryTree) error {
					_, _, err := tr.Remove(ctx, key[:])
					return err
				},
				// AFTER EACH
				nil,
			)
		})

		b.Run("PopMax", func(b *testing.B) {
			var key [32]byte

			benchmarkTree(
				b,
				store,
				// SETUP
				nil,
				// BEFORE EACH
				func(ctx context.Context, tr BinaryTree) error {
					if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
						return err
					}
					_, _, err := tr.Insert(ctx, key[:], []byte("<value>"))
					return err
				},
				// BENCHMARKED CODE
				func(ctx context.Context, tr BinaryTree) error {
					_, _, _, err := tr.PopMax(ctx)
					return err
				},
				// AFTER EACH
				nil,
			)
		})

		b.Run("Last (3k pairs)", func(b *testing.B) {
			benchmarkTree(
				b,
				store,
				// SETUP
				func(ctx context.Context, tr BinaryTree) error {
					return populateBenchmarkTree(ctx, tr, 3000)
				},
				// BEFORE EACH
				nil,
				// BENCHMARKED CODE
				func(ctx context.Context, tr BinaryTree) error {
					_, _, _, err := tr.Last(ctx)
					return err
				},
				// AFTER EACH
				nil,
			)
		})

		b.Run("Range (3k pairs)", func(b *testing.B) {
			benchmarkTree(
				b,
				store,
				// SETUP
				func(ctx context.Context, tr BinaryTree) error {
					return populateBenchmarkTree(ctx, tr, 3000)
				},
				// BEFORE EACH
				nil,
				// BENCHMARKED CODE
				func(ctx context.Context, tr BinaryTree) error {
					return tr.Range(
						ctx,
						Everything[[]byte](),
						Ascending,
						func(context.Context, []byte, []byte) (bool, error) {
							return true, nil
						},
					)
				},
				// AFTER EACH
				nil,
			)
		})
	})
}

// benchmarkTree benchmarks an operation on a tree opened from store.
func benchmarkTree(
	b *testing.B,
	store BinaryStore,
	setup func(context.Context, BinaryTree) error,
	pre func(context.Context, BinaryTree) error,
	fn func(context.Context, BinaryTree) error,
	post func(context.Context, BinaryTree) error,
) {
	var tr BinaryTree

	wrap := func(x func(context.Context, BinaryTree) error) func(context.Context) error {
		if x == nil {
			return nil
		}
		return func(ctx context.Context) error {
			return x(ctx, tr)
		}
	}

	xtesting.Benchmark(
		b,
		// SETUP
		func(ctx context.Context) error {
			var err error
			tr, err = store.Open(ctx, xtesting.SequentialName("tree"))
			if err != nil {
				return err
			}

			b.Cleanup(func() {
				if err := tr.Close(); err != nil {
					b.Error(err)
				}
			})

			if setup != nil {
				return setup(ctx, tr)
			}
			return nil
		},
		wrap(pre),
		wrap(fn),
		wrap(post),
	)
}

func populateBenchmarkTree(ctx context.Context, tr BinaryTree, n int) error {
	for i := range n {
		k := []byte(fmt.Sprintf("<key-%05d>", i))
		if _, _, err := tr.Insert(ctx, k, []byte("<value>")); err != nil {
			return err
		}
	}
	return nil
}
