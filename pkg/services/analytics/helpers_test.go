package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// fakeClock hands out timers that only fire when the test says so.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	repeat  bool
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) func() {
	return c.add(&fakeTimer{d: d, f: f})
}

func (c *fakeClock) Every(d time.Duration, f func()) func() {
	return c.add(&fakeTimer{d: d, f: f, repeat: true})
}

func (c *fakeClock) add(t *fakeTimer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers = append(c.timers, t)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		t.stopped = true
	}
}

// live returns the periods of live tickers and one-shot timers.
func (c *fakeClock) live() (tickers, timeouts []time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.timers {
		if t.stopped {
			continue
		}
		if t.repeat {
			tickers = append(tickers, t.d)
		} else {
			timeouts = append(timeouts, t.d)
		}
	}
	return tickers, timeouts
}

// fire runs the callbacks of live timers with period d. One-shot timers
// stop after firing.
func (c *fakeClock) fire(d time.Duration) {
	c.mu.Lock()
	var due []func()
	for _, t := range c.timers {
		if t.stopped || t.d != d {
			continue
		}
		due = append(due, t.f)
		if !t.repeat {
			t.stopped = true
		}
	}
	c.mu.Unlock()

	for _, f := range due {
		f()
	}
}

// allCallbacks returns every callback ever registered, stopped or not.
func (c *fakeClock) allCallbacks() []func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]func(), len(c.timers))
	for i, t := range c.timers {
		out[i] = t.f
	}
	return out
}

// recordHandler is a slog.Handler that keeps every record message.
type recordHandler struct {
	mu       *sync.Mutex
	messages *[]string
}

func newRecordHandler() *recordHandler {
	return &recordHandler{mu: &sync.Mutex{}, messages: &[]string{}}
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.messages = append(*h.messages, r.Message)
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordHandler) count(msg string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range *h.messages {
		if m == msg {
			n++
		}
	}
	return n
}

// recordingSaver keeps the snapshots it receives.
type recordingSaver struct {
	mu    sync.Mutex
	saved [][]Event
	err   error
}

func (s *recordingSaver) Save(_ context.Context, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, events)
	return s.err
}

func (s *recordingSaver) calls() [][]Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]Event(nil), s.saved...)
}
