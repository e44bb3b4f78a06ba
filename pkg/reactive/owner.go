package reactive

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Owner is a disposal scope for effects. When an Owner is disposed, its child
// owners, the effects registered with it and its cleanup functions are
// disposed too. Services keep one Owner and dispose it on Close.
//
// Owners form a tree: NewOwner(parent) registers the new owner with parent.
type Owner struct {
	parent *Owner

	children   []*Owner
	childrenMu sync.Mutex

	effects   []*Effect
	effectsMu sync.Mutex

	cleanups   []func()
	cleanupsMu sync.Mutex

	disposed atomic.Bool
}

// NewOwner creates an Owner. If parent is non-nil the new owner is disposed
// together with it.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{parent: parent}
	if parent != nil {
		parent.addChild(o)
	}
	return o
}

// Parent returns the parent Owner, or nil for a root.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// IsDisposed reports whether Dispose has been called.
func (o *Owner) IsDisposed() bool {
	return o.disposed.Load()
}

func (o *Owner) addChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	o.children = append(o.children, child)
}

func (o *Owner) removeChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()

	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// registerEffect adds an effect to this owner.
// Returns false if the owner is already disposed.
func (o *Owner) registerEffect(e *Effect) bool {
	o.effectsMu.Lock()
	defer o.effectsMu.Unlock()

	// Checked under effectsMu: Dispose marks the owner before it takes the
	// effect list, so an effect appended here is always collected.
	if o.disposed.Load() {
		return false
	}
	o.effects = append(o.effects, e)
	return true
}

// Effects returns the effects registered with this owner, in creation order.
func (o *Owner) Effects() []*Effect {
	o.effectsMu.Lock()
	defer o.effectsMu.Unlock()
	return append([]*Effect(nil), o.effects...)
}

// OnCleanup registers fn to run when the owner is disposed.
// If the owner is already disposed fn runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	o.cleanupsMu.Lock()
	if o.disposed.Load() {
		o.cleanupsMu.Unlock()
		fn()
		return
	}
	o.cleanups = append(o.cleanups, fn)
	o.cleanupsMu.Unlock()
}

// Dispose disposes children (last created first), then effects, then runs
// cleanups in reverse registration order. Dispose is idempotent. The returned
// error joins the effects' cleanup failures.
func (o *Owner) Dispose() error {
	if o.disposed.Swap(true) {
		return nil
	}

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	o.childrenMu.Lock()
	children := o.children
	o.children = nil
	o.childrenMu.Unlock()

	var errs []error
	for i := len(children) - 1; i >= 0; i-- {
		errs = append(errs, children[i].Dispose())
	}

	o.effectsMu.Lock()
	effects := o.effects
	o.effects = nil
	o.effectsMu.Unlock()

	for i := len(effects) - 1; i >= 0; i-- {
		errs = append(errs, effects[i].Dispose())
	}

	o.cleanupsMu.Lock()
	cleanups := o.cleanups
	o.cleanups = nil
	o.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	return errors.Join(errs...)
}
