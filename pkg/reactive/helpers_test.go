package reactive

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"time"
)

func newTestRuntime(opts ...RuntimeOption) *Runtime {
	opts = append([]RuntimeOption{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewRuntime(opts...)
}

// logBuffer is a goroutine-safe sink for slog output.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// recordingObserver counts runtime notifications.
type recordingObserver struct {
	writes     int
	unchanged  int
	evaluated  int
	effectRuns int
	disposed   []string
	flushes    int
}

func (o *recordingObserver) SignalWritten(_ NodeID, changed bool) {
	if changed {
		o.writes++
	} else {
		o.unchanged++
	}
}

func (o *recordingObserver) ComputedEvaluated(NodeID, time.Duration) { o.evaluated++ }

func (o *recordingObserver) EffectRan(NodeID, string, time.Duration, error) { o.effectRuns++ }

func (o *recordingObserver) EffectDisposed(_ NodeID, name string) {
	o.disposed = append(o.disposed, name)
}

func (o *recordingObserver) FlushCompleted(int, time.Duration, error) { o.flushes++ }
