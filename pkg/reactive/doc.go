// Package reactive provides a small push-pull reactive runtime.
//
// Dependencies are tracked automatically: reading a signal while a computed
// value derives or an effect runs subscribes that consumer to the signal.
// Writes mark dependents stale immediately; computed values re-derive lazily
// on the next read, and effects re-run synchronously before the write
// returns.
//
// # Core Types
//
// Signal[T] is a reactive value container:
//
//	rt := reactive.NewRuntime()
//	count := reactive.NewSignal(rt, 0)
//	value := count.Get()  // Read (subscribes current listener)
//	count.Set(5)          // Write (refreshes dependents)
//	count.Update(func(n int) int { return n + 1 })
//
// Computed[T] is a cached derivation:
//
//	doubled := reactive.NewComputed(rt, func() int { return count.Get() * 2 })
//	value := doubled.Get()  // Re-derives only if count changed
//
// Effect runs side effects and re-runs when what it read changes. The
// cleanup registered by one run completes before the next run starts:
//
//	reactive.NewEffect(rt, func(onCleanup func(reactive.Cleanup)) error {
//	    t := time.NewTicker(interval.Get())
//	    onCleanup(t.Stop)
//	    return nil
//	})
//
// # Untracked reads
//
// Reads inside rt.Untracked (or the generic Untracked helper) see the
// current value without subscribing:
//
//	reactive.NewEffect(rt, func(func(reactive.Cleanup)) error {
//	    events := list.Get()
//	    if reactive.Untracked(rt, enabled.Get) {
//	        log.Println(len(events))
//	    }
//	    return nil
//	})
//
// # Batching
//
// Multiple writes can be grouped so dependent effects run once:
//
//	rt.Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	})
//
// # Errors
//
// A panic or error in one effect never prevents other effects from running.
// Failures are wrapped in *EffectError and returned, joined, from the call
// that caused the run (Set, Update, Batch, NewEffect or Dispose).
//
// # Thread Safety
//
// A Runtime serializes propagation with a lock that is reentrant for the
// goroutine holding it, so primitives may be used from several goroutines.
// Cleanups must not block on goroutines that need the same Runtime.
package reactive
