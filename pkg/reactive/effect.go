package reactive

import (
	"errors"
	"time"
)

// Cleanup releases resources acquired by one run of an effect.
type Cleanup func()

// EffectFunc is the body of an effect. It may call onCleanup to register the
// teardown for the resources this run acquired; the last registration of a
// run wins. A returned error, like a panic, fails this run only.
type EffectFunc func(onCleanup func(Cleanup)) error

// Effect is a reactive side effect. It runs once when created and again
// whenever a signal or computed value it read during its last run changes.
// The cleanup registered by run N always completes before run N+1 starts and
// before the effect is torn down.
type Effect struct {
	rt   *Runtime
	node *node

	body    EffectFunc
	cleanup Cleanup

	name        string
	allowWrites bool

	disposed bool

	// disposeAfterRun defers teardown when Dispose is called from inside
	// the effect's own body.
	disposeAfterRun bool
}

// EffectOption configures an Effect.
type EffectOption func(*Effect)

// EffectName names the effect in logs, metrics, traces and errors.
func EffectName(name string) EffectOption {
	return func(e *Effect) {
		e.name = name
	}
}

// AllowWrites marks an effect as intentionally writing signals from its body,
// which silences the strict-effect check for it.
func AllowWrites() EffectOption {
	return func(e *Effect) {
		e.allowWrites = true
	}
}

// NewEffect creates an effect and runs body once before returning. The
// returned error is the failure of that first run, joined with failures of
// other effects the run caused to re-run. The effect is returned (and stays
// subscribed to whatever it read) even when the first run failed.
//
// Effects created while an Owner is current (see Runtime.WithOwner) are
// disposed with that owner.
//
// Example:
//
//	e, err := reactive.NewEffect(rt, func(onCleanup func(reactive.Cleanup)) error {
//	    t := time.AfterFunc(delay.Get(), ping)
//	    onCleanup(func() { t.Stop() })
//	    return nil
//	})
func NewEffect(rt *Runtime, body EffectFunc, opts ...EffectOption) (*Effect, error) {
	rt.lock.lock()
	defer rt.lock.unlock()

	e := &Effect{
		rt:   rt,
		node: rt.register(kindEffect),
		body: body,
	}
	e.node.effect = e
	for _, opt := range opts {
		opt(e)
	}

	if owner := rt.tracking.owner; owner != nil && !owner.registerEffect(e) {
		// Created under a disposed owner: never runs.
		e.disposed = true
		delete(rt.nodes, e.node.id)
		return e, nil
	}

	_, err := e.execute(true)
	if ferr := rt.flush(); ferr != nil {
		err = errors.Join(err, ferr)
	}
	return e, err
}

// ID returns the effect's node handle.
func (e *Effect) ID() NodeID {
	return e.node.id
}

// Name returns the name given with EffectName.
func (e *Effect) Name() string {
	return e.name
}

// Disposed reports whether Dispose has been called.
func (e *Effect) Disposed() bool {
	e.rt.lock.lock()
	defer e.rt.lock.unlock()
	return e.disposed
}

// Dispose runs the last registered cleanup and unsubscribes the effect from
// every dependency; the effect never runs again. Dispose is idempotent: later
// calls do nothing and return nil. The returned error carries a cleanup
// failure and failures of effects the cleanup caused to re-run.
func (e *Effect) Dispose() error {
	rt := e.rt
	rt.lock.lock()
	defer rt.lock.unlock()

	if e.disposed {
		return nil
	}
	e.disposed = true
	delete(rt.pending, e.node.id)

	if e.node.evaluating {
		e.disposeAfterRun = true
		return nil
	}

	err := e.teardown()
	return errors.Join(err, rt.flush())
}

// execute re-runs the effect: previous cleanup, fresh dependency set, body.
// Unless force is set, the run is skipped when none of the dependencies
// moved since the last run. Caller must hold the runtime lock.
func (e *Effect) execute(force bool) (ran bool, err error) {
	rt := e.rt
	if e.disposed {
		return false, nil
	}

	if !force {
		var changed bool
		if cerr := capture(func() error {
			changed = rt.depsChanged(e.node)
			return nil
		}); cerr != nil {
			return false, e.fail(PhaseRun, cerr)
		}
		if !changed {
			return false, nil
		}
	}

	start := time.Now()
	var errs []error

	if cleanup := e.cleanup; cleanup != nil {
		e.cleanup = nil
		if cerr := runCleanup(cleanup); cerr != nil {
			errs = append(errs, e.fail(PhaseCleanup, cerr))
		}
	}

	var runErr error
	rt.evaluate(e.node, func() {
		prev := rt.tracking.effect
		rt.tracking.effect = e
		defer func() { rt.tracking.effect = prev }()

		runErr = capture(func() error { return e.body(e.register) })
	})
	if runErr != nil {
		errs = append(errs, e.fail(PhaseRun, runErr))
	}

	rt.stats.EffectRuns++
	err = errors.Join(errs...)
	rt.observer.EffectRan(e.node.id, e.name, time.Since(start), err)
	rt.logger.Debug("effect ran", "effect", e.name, "effect_id", e.node.id, "duration", time.Since(start))

	if e.disposeAfterRun {
		e.disposeAfterRun = false
		if terr := e.teardown(); terr != nil {
			err = errors.Join(err, terr)
		}
	}
	return true, err
}

// register is the onCleanup callback handed to the body.
func (e *Effect) register(fn Cleanup) {
	e.rt.lock.lock()
	defer e.rt.lock.unlock()

	if e.disposed && !e.node.evaluating {
		// Registered after teardown; release immediately.
		if fn != nil {
			fn()
		}
		return
	}
	e.cleanup = fn
}

// teardown releases the effect's last cleanup and graph edges.
func (e *Effect) teardown() error {
	rt := e.rt
	var err error
	if cleanup := e.cleanup; cleanup != nil {
		e.cleanup = nil
		if cerr := runCleanup(cleanup); cerr != nil {
			err = e.fail(PhaseCleanup, cerr)
		}
	}
	rt.unlinkDeps(e.node)
	delete(rt.nodes, e.node.id)
	rt.observer.EffectDisposed(e.node.id, e.name)
	return err
}

func (e *Effect) fail(phase EffectPhase, err error) error {
	e.rt.stats.EffectErrors++
	e.rt.logger.Warn("effect failed", "effect", e.name, "effect_id", e.node.id, "phase", phase, "error", err)
	return &EffectError{Effect: e.node.id, Name: e.name, Phase: phase, Err: err}
}

func runCleanup(fn Cleanup) error {
	return capture(func() error {
		fn()
		return nil
	})
}
