package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Kryostatic94/lsx-signal-workshop/pkg/reactive"
)

func quietRuntime(o reactive.Observer) *reactive.Runtime {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return reactive.NewRuntime(reactive.WithLogger(logger), reactive.WithObserver(o))
}

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))
	rt := quietRuntime(m)

	count := reactive.NewSignal(rt, 1)
	double := reactive.NewComputed(rt, func() int { return count.Get() * 2 })
	e, err := reactive.NewEffect(rt, func(func(reactive.Cleanup)) error {
		_ = double.Get()
		return nil
	}, reactive.EffectName("render"))
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}

	if err := count.Set(2); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := count.Set(2); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if got := testutil.ToFloat64(m.signalWrites.WithLabelValues("true")); got != 1 {
		t.Errorf("changed writes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.signalWrites.WithLabelValues("false")); got != 1 {
		t.Errorf("unchanged writes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.effectRuns.WithLabelValues("render")); got != 2 {
		t.Errorf("effect runs = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.computedEvals); got != 2 {
		t.Errorf("computed evaluations = %v, want 2", got)
	}

	if err := e.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if got := testutil.ToFloat64(m.effectsDisposed); got != 1 {
		t.Errorf("disposed = %v, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "test_reactive_effect_runs_total" {
			found = true
		}
	}
	if !found {
		t.Error("test_reactive_effect_runs_total not registered")
	}
}

func TestMetricsEffectErrors(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	rt := quietRuntime(m)

	boom := errors.New("boom")
	_, err := reactive.NewEffect(rt, func(func(reactive.Cleanup)) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("NewEffect error = %v, want boom", err)
	}

	if got := testutil.ToFloat64(m.effectErrors.WithLabelValues("anonymous")); got != 1 {
		t.Errorf("effect errors = %v, want 1", got)
	}
}

func TestMetricsFlushes(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.FlushCompleted(3, time.Millisecond, nil)
	m.FlushCompleted(1, time.Millisecond, errors.New("x"))

	if got := testutil.ToFloat64(m.flushes); got != 2 {
		t.Errorf("flushes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.flushErrors); got != 1 {
		t.Errorf("flush errors = %v, want 1", got)
	}
}

func TestMetricsDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(WithRegistry(reg))

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewMetrics(WithRegistry(reg))
}

// recordingProvider collects spans started by tracers it hands out.
type recordingProvider struct {
	noop.TracerProvider

	mu    sync.Mutex
	spans []*recordedSpan
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return &recordingTracer{provider: p}
}

func (p *recordingProvider) ended() []*recordedSpan {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*recordedSpan(nil), p.spans...)
}

type recordingTracer struct {
	noop.Tracer
	provider *recordingProvider
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordedSpan{
		name:  name,
		start: cfg.Timestamp(),
		attrs: cfg.Attributes(),
	}
	t.provider.mu.Lock()
	t.provider.spans = append(t.provider.spans, s)
	t.provider.mu.Unlock()
	return ctx, s
}

type recordedSpan struct {
	noop.Span

	name   string
	start  time.Time
	end    time.Time
	attrs  []attribute.KeyValue
	errs   []error
	status codes.Code
	ended  bool
}

func (s *recordedSpan) RecordError(err error, _ ...trace.EventOption) {
	s.errs = append(s.errs, err)
}

func (s *recordedSpan) SetStatus(code codes.Code, _ string) {
	s.status = code
}

func (s *recordedSpan) End(opts ...trace.SpanEndOption) {
	cfg := trace.NewSpanEndConfig(opts...)
	s.end = cfg.Timestamp()
	s.ended = true
}

func (s *recordedSpan) attr(key string) (attribute.Value, bool) {
	for _, kv := range s.attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracerEffectSpans(t *testing.T) {
	tp := &recordingProvider{}
	tr := NewTracer(WithTracerProvider(tp), WithFlushSpans(false))
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return fixed }

	tr.EffectRan(7, "render", 5*time.Millisecond, nil)
	tr.EffectRan(8, "", time.Millisecond, errors.New("boom"))
	tr.FlushCompleted(2, time.Millisecond, nil)

	spans := tp.ended()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}

	ok := spans[0]
	if ok.name != "effect render" {
		t.Errorf("name = %q, want %q", ok.name, "effect render")
	}
	if !ok.ended || !ok.end.Equal(fixed) {
		t.Errorf("end = %v (ended=%v), want %v", ok.end, ok.ended, fixed)
	}
	if want := fixed.Add(-5 * time.Millisecond); !ok.start.Equal(want) {
		t.Errorf("start = %v, want %v", ok.start, want)
	}
	if ok.status != codes.Ok {
		t.Errorf("status = %v, want Ok", ok.status)
	}
	if v, found := ok.attr("reactive.node_id"); !found || v.AsInt64() != 7 {
		t.Errorf("node_id attribute = %v, %v", v.AsInt64(), found)
	}

	failed := spans[1]
	if failed.name != "effect anonymous" {
		t.Errorf("name = %q, want %q", failed.name, "effect anonymous")
	}
	if failed.status != codes.Error || len(failed.errs) != 1 {
		t.Errorf("status = %v errs = %v, want Error with one recorded error", failed.status, failed.errs)
	}
}

func TestTracerFlushSpans(t *testing.T) {
	tp := &recordingProvider{}
	tr := NewTracer(WithTracerProvider(tp), WithTracerName("test"))

	tr.FlushCompleted(3, time.Millisecond, nil)

	spans := tp.ended()
	if len(spans) != 1 || spans[0].name != "reactive.flush" {
		t.Fatalf("spans = %+v, want one reactive.flush span", spans)
	}
	if v, found := spans[0].attr("reactive.flush.runs"); !found || v.AsInt64() != 3 {
		t.Errorf("runs attribute = %v, %v, want 3", v.AsInt64(), found)
	}
}

func TestTracerWithRuntime(t *testing.T) {
	tp := &recordingProvider{}
	rt := quietRuntime(NewTracer(WithTracerProvider(tp)))

	s := reactive.NewSignal(rt, 0)
	_, err := reactive.NewEffect(rt, func(func(reactive.Cleanup)) error {
		_ = s.Get()
		return nil
	}, reactive.EffectName("watch"))
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}
	if err := s.Set(1); err != nil {
		t.Fatalf("Set: %v", err)
	}

	effects := 0
	for _, sp := range tp.ended() {
		if sp.name == "effect watch" {
			effects++
		}
	}
	if effects != 2 {
		t.Errorf("effect spans = %d, want 2", effects)
	}
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	o := NewLogObserver(logger)

	o.SignalWritten(1, true)
	o.EffectRan(2, "render", time.Millisecond, nil)
	o.EffectRan(3, "", time.Millisecond, errors.New("boom"))
	o.EffectDisposed(2, "render")
	o.FlushCompleted(1, time.Millisecond, errors.New("boom"))

	out := buf.String()
	for _, want := range []string{
		"signal written",
		"effect=render",
		"level=WARN msg=\"effect ran\"",
		"effect=anonymous",
		"effect disposed",
		"flush completed with errors",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

type countingObserver struct {
	writes, runs, disposed, flushes, evals int
}

func (c *countingObserver) SignalWritten(reactive.NodeID, bool)                     { c.writes++ }
func (c *countingObserver) ComputedEvaluated(reactive.NodeID, time.Duration)        { c.evals++ }
func (c *countingObserver) EffectRan(reactive.NodeID, string, time.Duration, error) { c.runs++ }
func (c *countingObserver) EffectDisposed(reactive.NodeID, string)                  { c.disposed++ }
func (c *countingObserver) FlushCompleted(int, time.Duration, error)                { c.flushes++ }

func TestMulti(t *testing.T) {
	a, b := &countingObserver{}, &countingObserver{}
	o := Multi(a, nil, b)

	o.SignalWritten(1, true)
	o.ComputedEvaluated(2, 0)
	o.EffectRan(3, "x", 0, nil)
	o.EffectDisposed(3, "x")
	o.FlushCompleted(1, 0, nil)

	for i, c := range []*countingObserver{a, b} {
		if c.writes != 1 || c.evals != 1 || c.runs != 1 || c.disposed != 1 || c.flushes != 1 {
			t.Errorf("observer %d = %+v, want one of each", i, *c)
		}
	}
}
