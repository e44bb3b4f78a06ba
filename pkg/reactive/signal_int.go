package reactive

// IntSignal wraps Signal[int] with convenience methods for integer operations.
type IntSignal struct {
	*Signal[int]
}

// NewIntSignal creates a new IntSignal with the given initial value.
func NewIntSignal(rt *Runtime, initial int) *IntSignal {
	return &IntSignal{NewSignal(rt, initial)}
}

// Inc increments the value by 1.
func (s *IntSignal) Inc() error {
	return s.Add(1)
}

// Dec decrements the value by 1.
func (s *IntSignal) Dec() error {
	return s.Add(-1)
}

// Add adds n to the value.
func (s *IntSignal) Add(n int) error {
	return s.Update(func(v int) int { return v + n })
}
