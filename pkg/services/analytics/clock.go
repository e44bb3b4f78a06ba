package analytics

import (
	"sync"
	"time"
)

// Clock is the time source and timer factory used by the service's effects.
// Every stop function is idempotent and returns without waiting for a
// callback that is already running.
type Clock interface {
	Now() time.Time

	// AfterFunc calls f once after d.
	AfterFunc(d time.Duration, f func()) (stop func())

	// Every calls f every d until stopped.
	Every(d time.Duration, f func()) (stop func())
}

// RealClock is the wall clock.
type RealClock struct{}

var _ Clock = RealClock{}

// Now returns time.Now().
func (RealClock) Now() time.Time { return time.Now() }

// AfterFunc wraps time.AfterFunc.
func (RealClock) AfterFunc(d time.Duration, f func()) func() {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

// Every runs f on its own goroutine, driven by a time.Ticker.
func (RealClock) Every(d time.Duration, f func()) func() {
	t := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-t.C:
				f()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.Stop()
			close(done)
		})
	}
}
