package telemetry

import (
	"time"

	"github.com/Kryostatic94/lsx-signal-workshop/pkg/reactive"
)

type multi []reactive.Observer

// Multi returns an Observer that forwards every notification to each of
// observers in order. nil entries are skipped.
func Multi(observers ...reactive.Observer) reactive.Observer {
	m := make(multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multi) SignalWritten(id reactive.NodeID, changed bool) {
	for _, o := range m {
		o.SignalWritten(id, changed)
	}
}

func (m multi) ComputedEvaluated(id reactive.NodeID, d time.Duration) {
	for _, o := range m {
		o.ComputedEvaluated(id, d)
	}
}

func (m multi) EffectRan(id reactive.NodeID, name string, d time.Duration, err error) {
	for _, o := range m {
		o.EffectRan(id, name, d, err)
	}
}

func (m multi) EffectDisposed(id reactive.NodeID, name string) {
	for _, o := range m {
		o.EffectDisposed(id, name)
	}
}

func (m multi) FlushCompleted(runs int, d time.Duration, err error) {
	for _, o := range m {
		o.FlushCompleted(runs, d, err)
	}
}
