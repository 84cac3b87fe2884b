package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// StartSpan starts a span representing a single operation.
//
// It increments the "operations" metric and the in-flight gauge; the latter
// is decremented when the span ends.
func (r *Recorder) StartSpan(
	ctx context.Context,
	name string,
	attrs ...Attr,
) (context.Context, trace.Span) {
	r.operationCount(ctx, 1)
	r.operationsInFlightCount(ctx, 1)

	ctx, span := r.tracer.Start(
		ctx,
		name,
		trace.WithAttributes(asAttrKeyValues(attrs)...),
	)

	return ctx, spanWithCleanup{span, func() {
		r.operationsInFlightCount(context.Background(), -1)
	}}
}

type spanWithCleanup struct {
	trace.Span
	cleanup func()
}

func (s spanWithCleanup) End(opts ...trace.SpanEndOption) {
	s.Span.End(opts...)
	s.cleanup()
}
