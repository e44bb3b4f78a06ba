// Package counter implements the workshop's basic-signals example: a
// writable count with two values derived from it.
package counter

import (
	"log/slog"

	"github.com/Kryostatic94/lsx-signal-workshop/pkg/reactive"
)

// State is a snapshot of the counter.
type State struct {
	Count       int  `json:"count"`
	DoubleCount int  `json:"doubleCount"`
	IsEven      bool `json:"isEven"`
}

// Service holds the counter state. Callers read it through the Readable
// views and change it only through the methods.
type Service struct {
	rt     *reactive.Runtime
	logger *slog.Logger

	count       *reactive.IntSignal
	doubleCount *reactive.Computed[int]
	isEven      *reactive.Computed[bool]
}

// New creates a counter starting at zero.
func New(rt *reactive.Runtime) *Service {
	s := &Service{
		rt:     rt,
		logger: rt.Logger().With("service", "counter"),
		count:  reactive.NewIntSignal(rt, 0),
	}
	s.doubleCount = reactive.NewComputed(rt, func() int { return s.count.Get() * 2 })
	s.isEven = reactive.NewComputed(rt, func() bool { return s.count.Get()%2 == 0 })
	return s
}

// Count is the current value.
func (s *Service) Count() reactive.Readable[int] { return s.count.ReadOnly() }

// DoubleCount is twice the current value.
func (s *Service) DoubleCount() reactive.Readable[int] { return s.doubleCount }

// IsEven reports whether the current value is even.
func (s *Service) IsEven() reactive.Readable[bool] { return s.isEven }

// Increment adds one.
func (s *Service) Increment() error {
	return s.count.Inc()
}

// Decrement subtracts one.
func (s *Service) Decrement() error {
	return s.count.Dec()
}

// Reset sets the count back to zero.
func (s *Service) Reset() error {
	s.logger.Debug("counter reset", "from", s.count.Peek())
	return s.count.Set(0)
}

// SetCustomValue sets the count to n.
func (s *Service) SetCustomValue(n int) error {
	return s.count.Set(n)
}

// State returns a snapshot. Reads are tracked, so calling State from an
// effect subscribes it to every counter value.
func (s *Service) State() State {
	return State{
		Count:       s.count.Get(),
		DoubleCount: s.doubleCount.Get(),
		IsEven:      s.isEven.Get(),
	}
}
