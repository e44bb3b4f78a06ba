package analytics

import (
	"context"
	"log/slog"
)

// Saver receives the auto-save snapshots.
type Saver interface {
	Save(ctx context.Context, events []Event) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, events []Event) error

// Save calls f.
func (f SaverFunc) Save(ctx context.Context, events []Event) error {
	return f(ctx, events)
}

// LogSaver stands in for a server upload by logging a summary of each
// snapshot.
type LogSaver struct {
	Logger *slog.Logger
}

// Save logs the number of events and the first and last event types.
func (s LogSaver) Save(ctx context.Context, events []Event) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(events) == 0 {
		return nil
	}
	logger.InfoContext(ctx, "sending data to server",
		"count", len(events),
		"first_event", events[0].Type,
		"last_event", events[len(events)-1].Type,
	)
	return nil
}
