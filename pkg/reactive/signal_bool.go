package reactive

// BoolSignal wraps Signal[bool] with convenience methods for boolean operations.
type BoolSignal struct {
	*Signal[bool]
}

// NewBoolSignal creates a new BoolSignal with the given initial value.
func NewBoolSignal(rt *Runtime, initial bool) *BoolSignal {
	return &BoolSignal{NewSignal(rt, initial)}
}

// Toggle inverts the value.
func (s *BoolSignal) Toggle() error {
	return s.Update(func(b bool) bool { return !b })
}

// SetTrue sets the value to true.
func (s *BoolSignal) SetTrue() error {
	return s.Set(true)
}

// SetFalse sets the value to false.
func (s *BoolSignal) SetFalse() error {
	return s.Set(false)
}
