package reactive

import "time"

// Computed is a cached derivation that tracks its own dependencies.
//
// Computed values are lazy: derive runs on the first Get, not at creation.
// When an upstream signal changes the computed is marked stale at once, and
// the next read re-derives it, but only if one of the values it depends on
// actually moved. A computed whose new value equals the cached one keeps its
// version, so consumers depending on it are not re-run.
//
// derive must not write signals.
type Computed[T any] struct {
	rt   *Runtime
	node *node

	derive func() T
	value  T
	equal  func(T, T) bool
}

// NewComputed creates a computed value backed by derive.
func NewComputed[T any](rt *Runtime, derive func() T) *Computed[T] {
	rt.lock.lock()
	defer rt.lock.unlock()

	c := &Computed[T]{
		rt:     rt,
		node:   rt.register(kindComputed),
		derive: derive,
	}
	c.node.recompute = c.recompute
	return c
}

// Get returns the up-to-date value and subscribes the current listener to the
// computed itself (not to its transitive dependencies).
//
// Get panics with a *CycleError when the computed reads itself during its own
// derivation, and re-panics when derive panics. The read is tracked either
// way, so the reader re-runs once the derivation succeeds again.
func (c *Computed[T]) Get() T {
	c.rt.lock.lock()
	defer c.rt.lock.unlock()
	defer c.rt.track(c.node)

	c.rt.refresh(c.node)
	return c.value
}

// Peek returns the up-to-date value without subscribing.
// It still re-derives when the cached value is stale.
func (c *Computed[T]) Peek() T {
	c.rt.lock.lock()
	defer c.rt.lock.unlock()

	c.rt.refresh(c.node)
	return c.value
}

// WithEquals configures the equality function deciding whether a new
// derivation counts as a change for downstream consumers.
func (c *Computed[T]) WithEquals(fn func(T, T) bool) *Computed[T] {
	c.rt.lock.lock()
	defer c.rt.lock.unlock()
	c.equal = fn
	return c
}

// ID returns the computed's node handle.
func (c *Computed[T]) ID() NodeID {
	return c.node.id
}

func (c *Computed[T]) recompute() {
	start := time.Now()

	done := false
	defer func() {
		if !done {
			// derive panicked: drop the cached value so the next read
			// re-derives, and keep the node open to stale marking.
			c.node.evaluated = false
			c.node.stale = false
		}
	}()

	var next T
	c.rt.evaluate(c.node, func() { next = c.derive() })

	if !c.node.evaluated || !c.equals(c.value, next) {
		c.value = next
		c.node.version++
	}
	c.node.evaluated = true
	c.node.stale = false
	done = true

	c.rt.observer.ComputedEvaluated(c.node.id, time.Since(start))
}

func (c *Computed[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return defaultEquals(a, b)
}
