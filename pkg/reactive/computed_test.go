package reactive

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func TestComputedDouble(t *testing.T) {
	rt := newTestRuntime()
	counter := NewSignal(rt, 0)
	double := NewComputed(rt, func() int { return counter.Get() * 2 })

	counter.Set(5)
	if got := double.Get(); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
}

func TestComputedListLength(t *testing.T) {
	rt := newTestRuntime()
	list := NewSignal(rt, []string{})
	count := NewComputed(rt, func() int { return len(list.Get()) })

	for range 2 {
		list.Update(func(l []string) []string {
			return append(append([]string{}, l...), "x")
		})
	}
	if got := count.Get(); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}

func TestComputedIsLazyAndCached(t *testing.T) {
	rt := newTestRuntime()
	a := NewSignal(rt, 1)

	calls := 0
	c := NewComputed(rt, func() int {
		calls++
		return a.Get() + 1
	})

	if calls != 0 {
		t.Fatalf("derive ran before first read: %d calls", calls)
	}

	c.Get()
	c.Get()
	c.Peek()
	if calls != 1 {
		t.Errorf("expected 1 derive call for repeated reads, got %d", calls)
	}

	a.Set(2)
	if calls != 1 {
		t.Errorf("derive should not run until read, got %d calls", calls)
	}
	if got := c.Get(); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if calls != 2 {
		t.Errorf("expected 2 derive calls, got %d", calls)
	}
}

func TestComputedDiamond(t *testing.T) {
	rt := newTestRuntime()
	a := NewSignal(rt, 1)
	b := NewComputed(rt, func() int { return a.Get() + 1 })
	c := NewComputed(rt, func() int { return a.Get() * 2 })

	dCalls := 0
	d := NewComputed(rt, func() int {
		dCalls++
		return b.Get() + c.Get()
	})

	var seen []int
	NewEffect(rt, func(func(Cleanup)) error {
		seen = append(seen, d.Get())
		return nil
	})

	a.Set(2)

	if len(seen) != 2 {
		t.Fatalf("expected effect to run twice, got %d: %v", len(seen), seen)
	}
	if seen[0] != 4 || seen[1] != 7 {
		t.Errorf("expected [4 7], got %v", seen)
	}
	if dCalls != 2 {
		t.Errorf("expected d to derive twice, got %d", dCalls)
	}
}

func TestComputedEqualValueStopsPropagation(t *testing.T) {
	rt := newTestRuntime()
	n := NewSignal(rt, 0)
	even := NewComputed(rt, func() bool { return n.Get()%2 == 0 })

	runs := 0
	NewEffect(rt, func(func(Cleanup)) error {
		_ = even.Get()
		runs++
		return nil
	})

	n.Set(2)
	n.Set(4)
	if runs != 1 {
		t.Errorf("unchanged computed should not re-run its effect, got %d runs", runs)
	}

	n.Set(5)
	if runs != 2 {
		t.Errorf("expected 2 runs, got %d", runs)
	}
}

func TestComputedChain(t *testing.T) {
	rt := newTestRuntime()
	base := NewSignal(rt, 1)

	chain := []*Computed[int]{NewComputed(rt, func() int { return base.Get() + 1 })}
	for i := 1; i < 50; i++ {
		prev := chain[i-1]
		chain = append(chain, NewComputed(rt, func() int { return prev.Get() + 1 }))
	}
	last := chain[len(chain)-1]

	if got := last.Get(); got != 51 {
		t.Errorf("expected 51, got %d", got)
	}
	base.Set(10)
	if got := last.Get(); got != 60 {
		t.Errorf("expected 60, got %d", got)
	}
}

func TestComputedDynamicDependencies(t *testing.T) {
	rt := newTestRuntime()
	useA := NewSignal(rt, true)
	a := NewSignal(rt, 1)
	b := NewSignal(rt, 100)

	calls := 0
	c := NewComputed(rt, func() int {
		calls++
		if useA.Get() {
			return a.Get()
		}
		return b.Get()
	})

	if got := c.Get(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	useA.Set(false)
	if got := c.Get(); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}

	a.Set(5)
	c.Get()
	if calls != 2 {
		t.Errorf("dropped dependency should not trigger re-derivation, got %d calls", calls)
	}
}

func TestComputedNeverStale(t *testing.T) {
	rt := newTestRuntime()
	x := NewSignal(rt, 0)
	y := NewSignal(rt, 0)
	sum := NewComputed(rt, func() int { return x.Get() + y.Get() })
	scaled := NewComputed(rt, func() int { return sum.Get() * 3 })

	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		v := r.IntN(20)
		if r.IntN(2) == 0 {
			x.Set(v)
		} else {
			y.Set(v)
		}
		if r.IntN(3) == 0 {
			continue // leave the derivation stale for a while
		}
		want := (x.Peek() + y.Peek()) * 3
		if got := scaled.Get(); got != want {
			t.Fatalf("step %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestComputedInsideBatchIsFresh(t *testing.T) {
	rt := newTestRuntime()
	a := NewSignal(rt, 1)
	double := NewComputed(rt, func() int { return a.Get() * 2 })
	double.Get()

	var inside int
	rt.Batch(func() {
		a.Set(4)
		inside = double.Get()
	})
	if inside != 8 {
		t.Errorf("expected 8 inside batch, got %d", inside)
	}
}

func TestComputedCycleDetected(t *testing.T) {
	rt := newTestRuntime()

	var c *Computed[int]
	c = NewComputed(rt, func() int { return c.Get() + 1 })

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok {
			t.Fatalf("expected an error panic, got %v", r)
		}
		if !errors.Is(err, ErrCycle) {
			t.Errorf("expected ErrCycle, got %v", err)
		}
		if rt.Tracking() {
			t.Error("tracking state leaked after cycle panic")
		}
	}()
	c.Get()
}

func TestComputedCycleSurfacesFromEffect(t *testing.T) {
	rt := newTestRuntime()

	var a, b *Computed[int]
	a = NewComputed(rt, func() int { return b.Get() })
	b = NewComputed(rt, func() int { return a.Get() })

	_, err := NewEffect(rt, func(func(Cleanup)) error {
		_ = a.Get()
		return nil
	})
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}

	var cycle *CycleError
	if !errors.As(err, &cycle) || cycle.Node != a.ID() {
		t.Errorf("expected cycle on node %d, got %v", a.ID(), err)
	}
}

func TestComputedWithEquals(t *testing.T) {
	rt := newTestRuntime()
	s := NewSignal(rt, 1.04)
	rounded := NewComputed(rt, func() float64 { return s.Get() }).
		WithEquals(func(a, b float64) bool { return int(a*10) == int(b*10) })

	runs := 0
	NewEffect(rt, func(func(Cleanup)) error {
		_ = rounded.Get()
		runs++
		return nil
	})

	s.Set(1.01)
	if runs != 1 {
		t.Errorf("expected equal derivation to be suppressed, got %d runs", runs)
	}
}

func TestEffectRecoversAfterComputedPanic(t *testing.T) {
	rt := newTestRuntime()
	s := NewSignal(rt, 0)
	c := NewComputed(rt, func() int {
		v := s.Get()
		if v == 1 {
			panic("bad input")
		}
		return v * 2
	})

	var seen []int
	if _, err := NewEffect(rt, func(func(Cleanup)) error {
		seen = append(seen, c.Get())
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := s.Set(1)
	var perr *PanicError
	if !errors.As(err, &perr) {
		t.Fatalf("expected the derive panic to surface, got %v", err)
	}

	if err := s.Set(2); err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if len(seen) != 2 || seen[1] != 4 {
		t.Errorf("expected effect to observe [0 4], got %v", seen)
	}

	if err := s.Set(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 3 || seen[2] != 6 {
		t.Errorf("expected effect to keep tracking, got %v", seen)
	}
}

func TestEffectSubscribesThroughFailedFirstRead(t *testing.T) {
	rt := newTestRuntime()
	s := NewSignal(rt, 1)
	c := NewComputed(rt, func() int {
		if s.Get() == 1 {
			panic("bad input")
		}
		return s.Peek() * 10
	})

	runs := 0
	var last int
	_, err := NewEffect(rt, func(func(Cleanup)) error {
		runs++
		last = c.Get()
		return nil
	})
	if err == nil {
		t.Fatal("expected first run to fail")
	}

	if err := s.Set(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runs != 2 {
		t.Errorf("expected effect to re-run once the derivation succeeds, got %d runs", runs)
	}
	if last != 20 {
		t.Errorf("expected 20, got %d", last)
	}
}

func TestComputedRederivesAfterPanic(t *testing.T) {
	rt := newTestRuntime()
	s := NewSignal(rt, 1)

	calls := 0
	c := NewComputed(rt, func() int {
		calls++
		if s.Get() < 0 {
			panic("negative")
		}
		return s.Get() + 1
	})

	if got := c.Get(); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}

	s.Set(-1)
	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected derive panic")
			}
		}()
		c.Get()
	}()

	s.Set(4)
	if got := c.Get(); got != 5 {
		t.Errorf("expected 5 after recovery, got %d", got)
	}
	if got := c.Peek(); got != 5 || calls != 3 {
		t.Errorf("expected cached 5 after 3 derivations, got %d after %d", got, calls)
	}
}
