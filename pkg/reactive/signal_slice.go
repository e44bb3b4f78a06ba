package reactive

// SliceSignal wraps Signal[[]T] with copy-on-write slice operations.
// Every operation produces a fresh slice, so values previously returned by
// Get are never mutated.
type SliceSignal[T any] struct {
	*Signal[[]T]
}

// NewSliceSignal creates a new SliceSignal. A nil initial value becomes an
// empty slice.
func NewSliceSignal[T any](rt *Runtime, initial []T) *SliceSignal[T] {
	if initial == nil {
		initial = []T{}
	}
	return &SliceSignal[T]{NewSignal(rt, initial)}
}

// Append adds items to the end of the slice.
func (s *SliceSignal[T]) Append(items ...T) error {
	return s.Update(func(current []T) []T {
		next := make([]T, 0, len(current)+len(items))
		next = append(next, current...)
		return append(next, items...)
	})
}

// RemoveWhere removes every item for which pred returns true.
func (s *SliceSignal[T]) RemoveWhere(pred func(T) bool) error {
	return s.Update(func(current []T) []T {
		next := make([]T, 0, len(current))
		for _, item := range current {
			if !pred(item) {
				next = append(next, item)
			}
		}
		return next
	})
}

// UpdateWhere replaces every item for which pred returns true with fn(item).
func (s *SliceSignal[T]) UpdateWhere(pred func(T) bool, fn func(T) T) error {
	return s.Update(func(current []T) []T {
		next := make([]T, len(current))
		for i, item := range current {
			if pred(item) {
				item = fn(item)
			}
			next[i] = item
		}
		return next
	})
}

// Clear removes all items.
func (s *SliceSignal[T]) Clear() error {
	return s.Set([]T{})
}

// Len returns the length of the slice. This reads the signal and creates a
// dependency.
func (s *SliceSignal[T]) Len() int {
	return len(s.Get())
}
