package reactive

import (
	"errors"
	"log/slog"
	"time"
)

// Runtime owns a reactive graph: the node table, the tracking context, the
// pending-effect queue and the lock that serializes propagation.
//
// All signals, computed values and effects created against a Runtime must
// only be combined with primitives from the same Runtime.
type Runtime struct {
	lock propagationLock

	nodes  map[NodeID]*node
	lastID NodeID

	tracking trackingContext

	// batchDepth tracks nested Batch calls. The flush runs when it drops to 0.
	batchDepth int

	// pending are effects waiting to re-run in the current flush.
	pending map[NodeID]struct{}

	// flushing is set while pending effects are being drained.
	flushing bool

	// evalDepth counts derivations and effect bodies on the stack. Writes made
	// inside them only queue effects; the outermost caller flushes.
	evalDepth int

	budget budget
	strict StrictEffectMode

	observer Observer
	logger   *slog.Logger

	stats Stats
}

// Stats is a point-in-time summary of a Runtime.
type Stats struct {
	Signals        int `json:"signals"`
	Computed       int `json:"computed"`
	Effects        int `json:"effects"`
	PendingEffects int `json:"pendingEffects"`

	Flushes       uint64 `json:"flushes"`
	EffectRuns    uint64 `json:"effectRuns"`
	EffectErrors  uint64 `json:"effectErrors"`
	LastFlushRuns int    `json:"lastFlushRuns"`
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithLogger sets the logger used for runtime diagnostics.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithObserver installs an Observer that is notified of writes, evaluations,
// effect runs and flushes.
func WithObserver(o Observer) RuntimeOption {
	return func(rt *Runtime) {
		if o != nil {
			rt.observer = o
		}
	}
}

// WithMaxEffectRuns bounds the number of effect runs a single flush may
// perform. Zero disables the limit.
func WithMaxEffectRuns(n int) RuntimeOption {
	return func(rt *Runtime) {
		rt.budget.maxEffectRuns = n
	}
}

// WithStrictEffects controls how signal writes made synchronously inside an
// effect body are reported.
func WithStrictEffects(mode StrictEffectMode) RuntimeOption {
	return func(rt *Runtime) {
		rt.strict = mode
	}
}

// NewRuntime creates an empty reactive runtime.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		nodes:    make(map[NodeID]*node),
		pending:  make(map[NodeID]struct{}),
		budget:   budget{maxEffectRuns: DefaultMaxEffectRuns},
		observer: nopObserver{},
		logger:   slog.Default().With("component", "reactive"),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Stats returns a snapshot of the runtime's counters.
func (rt *Runtime) Stats() Stats {
	rt.lock.lock()
	defer rt.lock.unlock()

	s := rt.stats
	s.Signals, s.Computed, s.Effects = 0, 0, 0
	for _, n := range rt.nodes {
		switch n.kind {
		case kindSignal:
			s.Signals++
		case kindComputed:
			s.Computed++
		case kindEffect:
			s.Effects++
		}
	}
	s.PendingEffects = len(rt.pending)
	return s
}

// Batch groups signal updates so dependent effects run once, after fn
// returns. Batches nest; the flush happens when the outermost batch ends.
// Computed values read inside the batch are always up to date.
//
// Example:
//
//	err := rt.Batch(func() {
//	    firstName.Set("John")
//	    lastName.Set("Doe")
//	})
func (rt *Runtime) Batch(fn func()) (err error) {
	rt.lock.lock()
	defer rt.lock.unlock()

	rt.batchDepth++
	defer func() {
		rt.batchDepth--
		if rt.batchDepth == 0 {
			if ferr := rt.flush(); err == nil {
				err = ferr
			}
		}
	}()

	fn()
	return nil
}

// TxNamed is Batch with a name recorded in debug logs.
func (rt *Runtime) TxNamed(name string, fn func()) error {
	rt.logger.Debug("transaction start", "tx", name)
	err := rt.Batch(fn)
	rt.logger.Debug("transaction end", "tx", name, "error", err)
	return err
}

// commit records a value change on n and propagates it.
func (rt *Runtime) commit(n *node) error {
	n.version++
	rt.observer.SignalWritten(n.id, true)
	rt.markStale(n)
	return rt.flush()
}

// schedule queues an effect node for the current flush.
func (rt *Runtime) schedule(n *node) {
	if n.effect == nil || n.effect.disposed {
		return
	}
	rt.pending[n.id] = struct{}{}
}

// flush drains pending effects in creation order. Effects queued while the
// flush is running join the same flush. Failures are isolated per effect and
// joined into the returned error.
func (rt *Runtime) flush() error {
	if rt.flushing || rt.batchDepth > 0 || rt.evalDepth > 0 || len(rt.pending) == 0 {
		return nil
	}
	rt.flushing = true
	defer func() { rt.flushing = false }()

	start := time.Now()
	rt.budget.reset()

	var errs []error
	for len(rt.pending) > 0 {
		id := rt.nextPending()
		delete(rt.pending, id)

		n := rt.nodes[id]
		if n == nil || n.effect == nil {
			continue
		}
		if err := rt.budget.checkEffectRun(); err != nil {
			rt.logger.Warn("effect run budget exceeded, dropping pending effects",
				"pending", len(rt.pending)+1, "limit", rt.budget.maxEffectRuns)
			clear(rt.pending)
			errs = append(errs, err)
			break
		}
		ran, err := n.effect.execute(false)
		if !ran {
			rt.budget.refund()
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	rt.stats.Flushes++
	rt.stats.LastFlushRuns = rt.budget.runs
	rt.observer.FlushCompleted(rt.budget.runs, time.Since(start), err)
	return err
}

// nextPending returns the pending effect created first.
func (rt *Runtime) nextPending() NodeID {
	var first NodeID
	for id := range rt.pending {
		if first == 0 || id < first {
			first = id
		}
	}
	return first
}

// checkWrite applies the strict-effect policy to a write of n.
func (rt *Runtime) checkWrite(n *node) {
	e := rt.tracking.effect
	if e == nil || e.allowWrites || rt.strict == StrictEffectOff {
		return
	}
	werr := &WriteInEffectError{Effect: e.node.id, Name: e.name, Signal: n.id}
	if rt.strict == StrictEffectPanic {
		panic(werr)
	}
	rt.logger.Warn("signal written inside effect body", "effect", e.name, "effect_id", e.node.id, "signal_id", n.id)
}
