package reactive

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrCycle is matched by errors raised when a computed value reads itself,
// directly or through other computed values, while it is being derived.
var ErrCycle = errors.New("reactive: dependency cycle detected")

// ErrBudgetExceeded is returned when a flush exceeds its effect run budget.
// This usually means an effect writes a signal it also reads.
var ErrBudgetExceeded = errors.New("reactive: effect run budget exceeded")

// ErrWriteInEffect is matched by *WriteInEffectError.
var ErrWriteInEffect = errors.New("reactive: signal written inside effect body")

// CycleError reports a reentrant evaluation of a computed node.
type CycleError struct {
	Node NodeID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("reactive: computed %d read itself during evaluation", e.Node)
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// EffectPhase says which part of an effect failed.
type EffectPhase string

const (
	PhaseRun     EffectPhase = "run"
	PhaseCleanup EffectPhase = "cleanup"
)

// EffectError wraps a failure of an effect body or cleanup.
// It is returned from the Set, Update, Batch or Dispose call that caused the
// effect to run.
type EffectError struct {
	Effect NodeID
	Name   string
	Phase  EffectPhase
	Err    error
}

func (e *EffectError) Error() string {
	name := e.Name
	if name == "" {
		name = fmt.Sprintf("#%d", e.Effect)
	}
	return fmt.Sprintf("reactive: effect %s %s: %v", name, e.Phase, e.Err)
}

func (e *EffectError) Unwrap() error { return e.Err }

// PanicError carries a value recovered from a panicking body, cleanup or
// derivation.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error, so errors.Is sees
// through panics such as *CycleError.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// WriteInEffectError reports a signal write made inside an effect body that
// was not created with AllowWrites, under StrictEffectPanic.
type WriteInEffectError struct {
	Effect NodeID
	Name   string
	Signal NodeID
}

func (e *WriteInEffectError) Error() string {
	return fmt.Sprintf("reactive: effect %q (#%d) wrote signal %d", e.Name, e.Effect, e.Signal)
}

func (e *WriteInEffectError) Unwrap() error { return ErrWriteInEffect }

// capture calls fn and converts a panic into a *PanicError.
func capture(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
