package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/Kryostatic94/lsx-signal-workshop/pkg/reactive"
)

// LogObserver writes runtime activity to a slog.Logger. Writes and
// derivations are logged at debug level; failed effects and flushes at warn.
type LogObserver struct {
	logger *slog.Logger
}

var _ reactive.Observer = (*LogObserver)(nil)

// NewLogObserver returns a LogObserver. A nil logger uses slog.Default.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger.With("component", "telemetry")}
}

func (o *LogObserver) SignalWritten(id reactive.NodeID, changed bool) {
	o.logger.Debug("signal written", "node_id", id, "changed", changed)
}

func (o *LogObserver) ComputedEvaluated(id reactive.NodeID, d time.Duration) {
	o.logger.Debug("computed evaluated", "node_id", id, "duration", d)
}

func (o *LogObserver) EffectRan(id reactive.NodeID, name string, d time.Duration, err error) {
	level := slog.LevelDebug
	attrs := []any{"node_id", id, "effect", effectLabel(name), "duration", d}
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, "error", err)
	}
	o.logger.Log(context.Background(), level, "effect ran", attrs...)
}

func (o *LogObserver) EffectDisposed(id reactive.NodeID, name string) {
	o.logger.Debug("effect disposed", "node_id", id, "effect", effectLabel(name))
}

func (o *LogObserver) FlushCompleted(runs int, d time.Duration, err error) {
	if err != nil {
		o.logger.Warn("flush completed with errors", "runs", runs, "duration", d, "error", err)
		return
	}
	o.logger.Debug("flush completed", "runs", runs, "duration", d)
}
