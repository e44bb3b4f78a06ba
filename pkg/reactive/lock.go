package reactive

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// propagationLock serializes every public entry point of a Runtime.
// It is reentrant for the goroutine that holds it, so effect bodies and
// derivations can read and write signals while a propagation is running.
type propagationLock struct {
	mu    sync.Mutex
	owner atomic.Uint64

	// depth is only touched by the owning goroutine.
	depth int
}

func (l *propagationLock) lock() {
	gid := getGoroutineID()
	if l.owner.Load() == gid {
		l.depth++
		return
	}
	l.mu.Lock()
	l.owner.Store(gid)
	l.depth = 1
}

func (l *propagationLock) unlock() {
	l.depth--
	if l.depth == 0 {
		l.owner.Store(0)
		l.mu.Unlock()
	}
}

// getGoroutineID returns the id of the calling goroutine, parsed from the
// "goroutine <id> [" header of its stack trace. Ids start at 1.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
