package reactive

import (
	"reflect"
)

// Readable is the read side shared by Signal and Computed.
// Services hand out Readable views so callers cannot write their state.
type Readable[T any] interface {
	// Get returns the current value and subscribes the active listener.
	Get() T

	// Peek returns the current value without subscribing.
	Peek() T

	// ID returns the node handle.
	ID() NodeID
}

// Signal is a reactive value container.
// Reading a Signal with Get while a computed value or an effect is evaluating
// subscribes that consumer; writing it with Set or Update synchronously
// refreshes dependents before returning.
type Signal[T any] struct {
	rt   *Runtime
	node *node

	// value is the current signal value. Guarded by the runtime lock.
	value T

	// equal decides whether a write changes the value. nil uses defaultEquals.
	equal func(T, T) bool
}

// NewSignal creates a signal holding initial.
func NewSignal[T any](rt *Runtime, initial T) *Signal[T] {
	rt.lock.lock()
	defer rt.lock.unlock()

	return &Signal[T]{
		rt:    rt,
		node:  rt.register(kindSignal),
		value: initial,
	}
}

// Get returns the current value and subscribes the current listener.
func (s *Signal[T]) Get() T {
	s.rt.lock.lock()
	defer s.rt.lock.unlock()

	s.rt.track(s.node)
	return s.value
}

// Peek returns the current value without subscribing.
func (s *Signal[T]) Peek() T {
	s.rt.lock.lock()
	defer s.rt.lock.unlock()
	return s.value
}

// Set replaces the value. When the new value differs from the old one per the
// signal's equality function, dependents are refreshed before Set returns.
// The returned error joins the failures of effects that re-ran.
func (s *Signal[T]) Set(value T) error {
	s.rt.lock.lock()
	defer s.rt.lock.unlock()

	s.rt.checkWrite(s.node)
	if s.equals(s.value, value) {
		s.rt.observer.SignalWritten(s.node.id, false)
		return nil
	}
	s.value = value
	return s.rt.commit(s.node)
}

// Update replaces the value with fn applied to the current value, read
// without tracking. For primitive kinds an unchanged result is dropped, as in
// Set; compound values (slices, maps, structs, pointers) always notify unless
// a custom equality function was installed with WithEquals.
func (s *Signal[T]) Update(fn func(T) T) error {
	s.rt.lock.lock()
	defer s.rt.lock.unlock()

	s.rt.checkWrite(s.node)
	next := fn(s.value)
	changed := true
	if s.equal != nil || isPrimitive[T]() {
		changed = !s.equals(s.value, next)
	}
	if !changed {
		s.rt.observer.SignalWritten(s.node.id, false)
		return nil
	}
	s.value = next
	return s.rt.commit(s.node)
}

// WithEquals configures a custom equality function.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.rt.lock.lock()
	defer s.rt.lock.unlock()
	s.equal = fn
	return s
}

// ReadOnly returns a view of s that cannot be written.
func (s *Signal[T]) ReadOnly() Readable[T] {
	return readOnly[T]{s}
}

// ID returns the signal's node handle.
func (s *Signal[T]) ID() NodeID {
	return s.node.id
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

type readOnly[T any] struct {
	s *Signal[T]
}

func (r readOnly[T]) Get() T     { return r.s.Get() }
func (r readOnly[T]) Peek() T    { return r.s.Peek() }
func (r readOnly[T]) ID() NodeID { return r.s.ID() }

// isPrimitive reports whether T has a boolean, numeric or string kind.
func isPrimitive[T any]() bool {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	default:
		return false
	}
}

// defaultEquals uses == for primitive kinds and reflect.DeepEqual otherwise.
func defaultEquals[T any](a, b T) bool {
	if isPrimitive[T]() {
		return any(a) == any(b)
	}
	return reflect.DeepEqual(a, b)
}
