package tree

import (
	"context"

	"github.com/dogmatiq/treekit/internal/telemetry"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// WithTelemetry returns a [BinaryStore] that adds telemetry to s.
func WithTelemetry(
	s BinaryStore,
	p trace.TracerProvider,
	m metric.MeterProvider,
	l log.LoggerProvider,
) BinaryStore {
	return &instrumentedStore{
		Next: s,
		Telemetry: telemetry.Provider{
			TracerProvider: p,
			MeterProvider:  m,
			LoggerProvider: l,
		},
	}
}

// instrumentedStore is a decorator that adds instrumentation to a
// [BinaryStore].
type instrumentedStore struct {
	Next      BinaryStore
	Telemetry telemetry.Provider
}

// Open returns the tree with the given name.
func (s *instrumentedStore) Open(ctx context.Context, name string) (BinaryTree, error) {
	telem := s.Telemetry.Recorder(
		"github.com/dogmatiq/treekit/tree",
		telemetry.Type("tree.store", s.Next),
		telemetry.String("tree.name", name),
	)

	t := &instrumentedTree{
		Telemetry: telem,
		OpenTrees: telem.UpDownCounter("open_trees", "{tree}", "The number of tree handles that are currently open."),
		Misses:    telem.Counter("misses", "{operation}", "The number of times the value associated with a specific key was requested but not present in the tree."),
		KeyIO:     telem.Counter("key.io", "By", "The cumulative size of the keys that have been operated upon."),
		ValueIO:   telem.Counter("value.io", "By", "The cumulative size of the values that have been operated upon."),
		KeySize:   telem.Histogram("key.size", "By", "The sizes of the keys that have been operated upon."),
		ValueSize: telem.Histogram("value.size", "By", "The sizes of the values that have been operated upon."),
	}

	ctx, span := telem.StartSpan(ctx, "tree.open")
	defer span.End()

	next, err := s.Next.Open(ctx, name)
	if err != nil {
		t.Telemetry.Error(ctx, "tree.open.error", err)
		return nil, err
	}

	t.Next = next

	t.OpenTrees(ctx, 1)
	t.Telemetry.Info(ctx, "tree.open.ok", "opened tree")

	return t, nil
}

type instrumentedTree struct {
	Next      BinaryTree
	Telemetry *telemetry.Recorder

	OpenTrees telemetry.Instrument[int64]
	Misses    telemetry.Instrument[int64]
	KeyIO     telemetry.Instrument[int64]
	ValueIO   telemetry.Instrument[int64]
	KeySize   telemetry.Instrument[int64]
	ValueSize telemetry.Instrument[int64]
}

func (t *instrumentedTree) Name() string {
	return t.Next.Name()
}

func (t *instrumentedTree) Get(ctx context.Context, k []byte) ([]byte, bool, error) {
	ctx, span := t.Telemetry.StartSpan(
		ctx,
		"tree.get",
		telemetry.Binary("key", k),
	)
	defer span.End()

	t.observeKey(ctx, k, telemetry.WriteDirection)

	v, ok, err := t.Next.Get(ctx, k)
	if err != nil {
		t.Telemetry.Error(ctx, "tree.get.error", err)
		return nil, false, err
	}

	if !ok {
		t.Misses(ctx, 1)
		t.Telemetry.Info(ctx, "tree.get.miss", "key not present")
		return nil, false, nil
	}

	t.observeValue(ctx, v, telemetry.ReadDirection)
	t.Telemetry.Info(ctx, "tree.get.ok", "fetched value")

	return v, true, nil
}

func (t *instrumentedTree) Insert(ctx context.Context, k, v []byte) ([]byte, bool, error) {
	ctx, span := t.Telemetry.StartSpan(
		ctx,
		"tree.insert",
		telemetry.Binary("key", k),
	)
	defer span.End()

	t.observeKey(ctx, k, telemetry.WriteDirection)
	t.observeValue(ctx, v, telemetry.WriteDirection)

	prev, ok, err := t.Next.Insert(ctx, k, v)
	if err != nil {
		t.Telemetry.Error(ctx, "tree.insert.error", err)
		return nil, false, err
	}

	t.Telemetry.Info(
		ctx,
		"tree.insert.ok",
		"inserted value",
		telemetry.Bool("replaced", ok),
	)

	return prev, ok, nil
}

func (t *instrumentedTree) Remove(ctx context.Context, k []byte) ([]byte, bool, error) {
	ctx, span := t.Telemetry.StartSpan(
		ctx,
		"tree.remove",
		telemetry.Binary("key", k),
	)
	defer span.End()

	t.observeKey(ctx, k, telemetry.WriteDirection)

	prev, ok, err := t.Next.Remove(ctx, k)
	if err != nil {
		t.Telemetry.Error(ctx, "tree.remove.error", err)
		return nil, false, err
	}

	if !ok {
		t.Misses(ctx, 1)
	}

	t.Telemetry.Info(
		ctx,
		"tree.remove.ok",
		"removed key",
		telemetry.Bool("existed", ok),
	)

	return prev, ok, nil
}

func (t *instrumentedTree) Has(ctx context.Context, k []byte) (bool, error) {
	ctx, span := t.Telemetry.StartSpan(
		ctx,
		"tree.has",
		telemetry.Binary("key", k),
	)
	defer span.End()

	t.observeKey(ctx, k, telemetry.WriteDirection)

	ok, err := t.Next.Has(ctx, k)
	if err != nil {
		t.Telemetry.Error(ctx, "tree.has.error", err)
		return false, err
	}

	if !ok {
		t.Misses(ctx, 1)
	}

	return ok, nil
}

func (t *instrumentedTree) First(ctx context.Context) ([]byte, []byte, bool, error) {
	return t.extremum(ctx, "tree.first", t.Next.First)
}

func (t *instrumentedTree) Last(ctx context.Context) ([]byte, []byte, bool, error) {
	return t.extremum(ctx, "tree.last", t.Next.Last)
}

func (t *instrumentedTree) PopMax(ctx context.Context) ([]byte, []byte, bool, error) {
	return t.extremum(ctx, "tree.pop_max", t.Next.PopMax)
}

func (t *instrumentedTree) extremum(
	ctx context.Context,
	op string,
	next func(context.Context) ([]byte, []byte, bool, error),
) ([]byte, []byte, bool, error) {
	ctx, span := t.Telemetry.StartSpan(ctx, op)
	defer span.End()

	k, v, ok, err := next(ctx)
	if err != nil {
		t.Telemetry.Error(ctx, op+".error", err)
		return nil, nil, false, err
	}

	if ok {
		t.observeKey(ctx, k, telemetry.ReadDirection)
		t.observeValue(ctx, v, telemetry.ReadDirection)
	}

	return k, v, ok, nil
}

func (t *instrumentedTree) Len(ctx context.Context) (uint64, error) {
	ctx, span := t.Telemetry.StartSpan(ctx, "tree.len")
	defer span.End()

	n, err := t.Next.Len(ctx)
	if err != nil {
		t.Telemetry.Error(ctx, "tree.len.error", err)
		return 0, err
	}

	t.Telemetry.Info(
		ctx,
		"tree.len.ok",
		"counted pairs",
		telemetry.Int("pairs", n),
	)

	return n, nil
}

func (t *instrumentedTree) Clear(ctx context.Context) error {
	ctx, span := t.Telemetry.StartSpan(ctx, "tree.clear")
	defer span.End()

	if err := t.Next.Clear(ctx); err != nil {
		t.Telemetry.Error(ctx, "tree.clear.error", err)
		return err
	}

	t.Telemetry.Info(ctx, "tree.clear.ok", "cleared tree")

	return nil
}

func (t *instrumentedTree) Range(
	ctx context.Context,
	iv Interval[[]byte],
	o Order,
	fn BinaryRangeFunc,
) error {
	ctx, span := t.Telemetry.StartSpan(
		ctx,
		"tree.range",
		telemetry.Stringer("interval", iv),
	)
	defer span.End()

	var count int64
	err := t.Next.Range(
		ctx,
		iv,
		o,
		func(ctx context.Context, k, v []byte) (bool, error) {
			count++
			t.observeKey(ctx, k, telemetry.ReadDirection)
			t.observeValue(ctx, v, telemetry.ReadDirection)
			return fn(ctx, k, v)
		},
	)
	if err != nil {
		t.Telemetry.Error(ctx, "tree.range.error", err)
		return err
	}

	t.Telemetry.Info(
		ctx,
		"tree.range.ok",
		"ranged over tree",
		telemetry.Int("pairs", count),
	)

	return nil
}

func (t *instrumentedTree) Close() error {
	t.OpenTrees(context.Background(), -1)
	return t.Next.Close()
}

func (t *instrumentedTree) observeKey(ctx context.Context, k []byte, dir telemetry.Attr) {
	n := int64(len(k))
	t.KeyIO(ctx, n, dir)
	t.KeySize(ctx, n, dir)
}

func (t *instrumentedTree) observeValue(ctx context.Context, v []byte, dir telemetry.Attr) {
	n := int64(len(v))
	t.ValueIO(ctx, n, dir)
	t.ValueSize(ctx, n, dir)
}
