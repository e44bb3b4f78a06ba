package reactive

// NodeID is an opaque handle into a Runtime's node table.
// IDs are assigned in creation order and never reused, so effects sorted by
// ID run in the order they were created.
type NodeID uint64

type nodeKind uint8

const (
	kindSignal nodeKind = iota + 1
	kindComputed
	kindEffect
)

// String returns a human-readable name for the node kind.
func (k nodeKind) String() string {
	switch k {
	case kindSignal:
		return "signal"
	case kindComputed:
		return "computed"
	case kindEffect:
		return "effect"
	default:
		return "unknown"
	}
}

// node is the type-erased bookkeeping shared by signals, computed values and
// effects. Typed values live in Signal[T] / Computed[T] / Effect; the graph
// only ever refers to other nodes by NodeID.
type node struct {
	id   NodeID
	kind nodeKind

	// version moves whenever the node's value changes.
	// Consumers remember the version they observed in deps.
	version uint64

	// stale is set on computed nodes when an upstream dependency changed.
	stale bool

	// evaluated is set once a computed node holds a cached value.
	evaluated bool

	// evaluating is set while a computed derives or an effect body runs.
	evaluating bool

	// subs are the consumers that read this node while tracking.
	subs map[NodeID]struct{}

	// deps maps each dependency to the version observed during the last
	// evaluation. depOrder keeps first-read order for deterministic refresh.
	deps     map[NodeID]uint64
	depOrder []NodeID

	// recompute re-derives a computed node's value. nil for other kinds.
	recompute func()

	// effect is set for effect nodes.
	effect *Effect
}

func newNode(id NodeID, kind nodeKind) *node {
	n := &node{
		id:   id,
		kind: kind,
		subs: make(map[NodeID]struct{}),
	}
	if kind != kindSignal {
		n.deps = make(map[NodeID]uint64)
	}
	return n
}

// register allocates a node in the arena.
func (rt *Runtime) register(kind nodeKind) *node {
	rt.lastID++
	n := newNode(rt.lastID, kind)
	rt.nodes[n.id] = n
	return n
}

// track records a read of n by the current listener, if any.
func (rt *Runtime) track(n *node) {
	lid := rt.tracking.listener
	if lid == 0 || lid == n.id {
		return
	}
	l := rt.nodes[lid]
	if l == nil {
		return
	}
	if _, ok := l.deps[n.id]; !ok {
		l.depOrder = append(l.depOrder, n.id)
	}
	l.deps[n.id] = n.version
	n.subs[lid] = struct{}{}
}

// unlinkDeps drops every dependency edge of n in both directions.
func (rt *Runtime) unlinkDeps(n *node) {
	for _, id := range n.depOrder {
		if dep := rt.nodes[id]; dep != nil {
			delete(dep.subs, n.id)
		}
	}
	clear(n.deps)
	n.depOrder = n.depOrder[:0]
}

// markStale pushes staleness from a changed node to its consumers:
// computed consumers are marked stale transitively and effects are queued.
func (rt *Runtime) markStale(n *node) {
	for sid := range n.subs {
		sub := rt.nodes[sid]
		if sub == nil {
			delete(n.subs, sid)
			continue
		}
		switch sub.kind {
		case kindComputed:
			if !sub.stale {
				sub.stale = true
				rt.markStale(sub)
			}
		case kindEffect:
			rt.schedule(sub)
		}
	}
}

// depsChanged reports whether any dependency of n moved past the version n
// observed. Stale computed dependencies are refreshed first, in read order.
func (rt *Runtime) depsChanged(n *node) bool {
	for _, id := range n.depOrder {
		dep := rt.nodes[id]
		if dep == nil {
			return true
		}
		if dep.kind == kindComputed {
			rt.refresh(dep)
		}
		if dep.version != n.deps[id] {
			return true
		}
	}
	return false
}

// refresh brings a computed node up to date, re-deriving only when one of its
// dependencies actually changed.
func (rt *Runtime) refresh(n *node) {
	if n.evaluating {
		panic(&CycleError{Node: n.id})
	}
	if n.evaluated && !n.stale {
		return
	}
	if n.evaluated && !rt.depsChanged(n) {
		n.stale = false
		return
	}
	n.recompute()
}

// evaluate runs fn with n as the active listener, collecting a fresh
// dependency set. The previous listener is restored even if fn panics.
func (rt *Runtime) evaluate(n *node, fn func()) {
	n.evaluating = true
	rt.evalDepth++
	rt.unlinkDeps(n)
	prev := rt.tracking.listener
	rt.tracking.listener = n.id
	defer func() {
		rt.tracking.listener = prev
		rt.evalDepth--
		n.evaluating = false
	}()
	fn()
}
