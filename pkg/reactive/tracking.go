package reactive

// trackingContext is the per-Runtime state that says which consumer, if any,
// is collecting dependencies right now. The propagation lock guarantees a
// single evaluation frame is active at a time, so one context per Runtime is
// enough; nested evaluations swap fields and restore them on exit.
type trackingContext struct {
	// listener is the computed or effect whose reads are being recorded.
	// Zero means reads are not tracked (top level or inside Untracked).
	listener NodeID

	// effect is the effect whose body is currently executing, used for
	// write-in-effect detection. Nil outside effect bodies.
	effect *Effect

	// owner receives effects created while it is set.
	owner *Owner
}

// Untracked runs fn with dependency tracking suppressed: signal and computed
// reads inside fn do not subscribe the enclosing computed or effect. The
// previous tracking state is restored when fn returns or panics.
//
// Example:
//
//	rt.Untracked(func() {
//	    fmt.Println("Current value:", count.Get())
//	})
func (rt *Runtime) Untracked(fn func()) {
	rt.lock.lock()
	defer rt.lock.unlock()

	prev := rt.tracking.listener
	rt.tracking.listener = 0
	defer func() { rt.tracking.listener = prev }()

	fn()
}

// Untracked is the value-returning form of Runtime.Untracked.
//
//	enabled := reactive.Untracked(rt, logging.Get)
func Untracked[T any](rt *Runtime, fn func() T) T {
	var out T
	rt.Untracked(func() { out = fn() })
	return out
}

// WithOwner runs fn with owner as the current owner. Effects created inside
// fn are registered with owner and disposed with it.
func (rt *Runtime) WithOwner(owner *Owner, fn func()) {
	rt.lock.lock()
	defer rt.lock.unlock()

	prev := rt.tracking.owner
	rt.tracking.owner = owner
	defer func() { rt.tracking.owner = prev }()

	fn()
}

// Tracking reports whether reads on the calling goroutine are currently
// recorded as dependencies.
func (rt *Runtime) Tracking() bool {
	rt.lock.lock()
	defer rt.lock.unlock()
	return rt.tracking.listener != 0
}
