package reactive

import "time"

// Observer receives notifications about runtime activity.
// Methods are called with the propagation lock held and must not call back
// into the Runtime or block.
type Observer interface {
	// SignalWritten is called for every Set/Update. changed is false when
	// the equality policy suppressed the write.
	SignalWritten(id NodeID, changed bool)

	// ComputedEvaluated is called after a computed value re-derived.
	ComputedEvaluated(id NodeID, d time.Duration)

	// EffectRan is called after each effect run, including the first.
	EffectRan(id NodeID, name string, d time.Duration, err error)

	// EffectDisposed is called once per disposed effect.
	EffectDisposed(id NodeID, name string)

	// FlushCompleted is called after pending effects were drained.
	FlushCompleted(runs int, d time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) SignalWritten(NodeID, bool)                     {}
func (nopObserver) ComputedEvaluated(NodeID, time.Duration)        {}
func (nopObserver) EffectRan(NodeID, string, time.Duration, error) {}
func (nopObserver) EffectDisposed(NodeID, string)                  {}
func (nopObserver) FlushCompleted(int, time.Duration, error)       {}
