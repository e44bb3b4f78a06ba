package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Kryostatic94/lsx-signal-workshop/pkg/reactive"
)

// OTelConfig configures the tracing observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "workshop/reactive").
	TracerName string

	// TracerProvider overrides the global provider from otel.GetTracerProvider.
	TracerProvider trace.TracerProvider

	// TraceFlushes records a span for every completed flush (default: true).
	TraceFlushes bool
}

// OTelOption configures the tracing observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithFlushSpans enables or disables flush spans.
func WithFlushSpans(enabled bool) OTelOption {
	return func(c *OTelConfig) {
		c.TraceFlushes = enabled
	}
}

// Tracer is a reactive.Observer that records effect runs and flushes as
// OpenTelemetry spans.
//
// Observer callbacks fire after the work completed, so spans are created
// retroactively with an explicit start timestamp.
//
// Span attributes:
//   - reactive.node_id: effect node handle
//   - reactive.effect: effect name
//   - reactive.flush.runs: effect runs in the flush
type Tracer struct {
	tracer       trace.Tracer
	traceFlushes bool
	now          func() time.Time
}

var _ reactive.Observer = (*Tracer)(nil)

// NewTracer creates the tracing observer.
func NewTracer(opts ...OTelOption) *Tracer {
	config := OTelConfig{
		TracerName:   "workshop/reactive",
		TraceFlushes: true,
	}
	for _, opt := range opts {
		opt(&config)
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Tracer{
		tracer:       tp.Tracer(config.TracerName),
		traceFlushes: config.TraceFlushes,
		now:          time.Now,
	}
}

// SignalWritten implements reactive.Observer. Writes are not traced.
func (t *Tracer) SignalWritten(reactive.NodeID, bool) {}

// ComputedEvaluated implements reactive.Observer. Derivations are not traced.
func (t *Tracer) ComputedEvaluated(reactive.NodeID, time.Duration) {}

// EffectRan implements reactive.Observer.
func (t *Tracer) EffectRan(id reactive.NodeID, name string, d time.Duration, err error) {
	end := t.now()
	_, span := t.tracer.Start(context.Background(), "effect "+effectLabel(name),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(end.Add(-d)),
		trace.WithAttributes(
			attribute.Int64("reactive.node_id", int64(id)),
			attribute.String("reactive.effect", effectLabel(name)),
		),
	)
	finish(span, err, end)
}

// EffectDisposed implements reactive.Observer.
func (t *Tracer) EffectDisposed(reactive.NodeID, string) {}

// FlushCompleted implements reactive.Observer.
func (t *Tracer) FlushCompleted(runs int, d time.Duration, err error) {
	if !t.traceFlushes {
		return
	}
	end := t.now()
	_, span := t.tracer.Start(context.Background(), "reactive.flush",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(end.Add(-d)),
		trace.WithAttributes(attribute.Int("reactive.flush.runs", runs)),
	)
	finish(span, err, end)
}

func finish(span trace.Span, err error, end time.Time) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}
