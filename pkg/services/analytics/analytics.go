// Package analytics implements the workshop's effects example: an event
// tracker whose effects log new events, auto-save on a timer and, on
// request, run extra monitoring timers. Each effect releases its timers
// through its cleanup, so at most one set of timers is live per effect.
package analytics

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Kryostatic94/lsx-signal-workshop/pkg/reactive"
)

var (
	// ErrEmptyType is returned by TrackEvent for a blank event type.
	ErrEmptyType = errors.New("analytics: event type must not be empty")

	// ErrInvalidBatchSize is returned by SetBatchSize for n < 1.
	ErrInvalidBatchSize = errors.New("analytics: batch size must be at least 1")

	// ErrInvalidInterval is returned by SetAutoSaveInterval for d <= 0.
	ErrInvalidInterval = errors.New("analytics: interval must be positive")
)

const (
	// DefaultBatchSize is the number of events per logged batch.
	DefaultBatchSize = 5

	// DefaultAutoSaveInterval is the auto-save period.
	DefaultAutoSaveInterval = 10 * time.Second

	// DefaultStatsInterval is the advanced monitoring stats period.
	DefaultStatsInterval = 5 * time.Second

	// recentEvents is the number of events in State.RecentEvents.
	recentEvents = 10
)

// EventTypes are the types TrackRandomEvent picks from.
var EventTypes = []string{"page_view", "button_click", "form_submit", "api_call", "user_action"}

// Event is a tracked analytics event.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// State is a snapshot of the tracker.
type State struct {
	TotalEvents      int     `json:"totalEvents"`
	RecentEvents     []Event `json:"recentEvents"`
	EnableLogging    bool    `json:"enableLogging"`
	BatchSize        int     `json:"batchSize"`
	AutoSaveInterval string  `json:"autoSaveInterval"`
	Monitoring       bool    `json:"monitoring"`
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for timestamps and timers.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithSaver sets the auto-save sink. The default is a LogSaver.
func WithSaver(saver Saver) Option {
	return func(s *Service) {
		if saver != nil {
			s.saver = saver
		}
	}
}

// WithEnableLogging sets the initial logging flag.
func WithEnableLogging(enabled bool) Option {
	return func(s *Service) {
		s.initial.logging = enabled
	}
}

// WithBatchSize sets the initial batch size.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n >= 1 {
			s.initial.batchSize = n
		}
	}
}

// WithAutoSaveInterval sets the initial auto-save period.
func WithAutoSaveInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.initial.interval = d
		}
	}
}

// WithStatsInterval sets the advanced monitoring stats period.
func WithStatsInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.statsInterval = d
		}
	}
}

// WithRand sets the random source of TrackRandomEvent.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) {
		s.rand = r
	}
}

// Service tracks analytics events.
type Service struct {
	rt     *reactive.Runtime
	logger *slog.Logger
	clock  Clock
	saver  Saver

	owner  *reactive.Owner
	ctx    context.Context
	cancel context.CancelFunc

	initial struct {
		logging   bool
		batchSize int
		interval  time.Duration
	}
	statsInterval time.Duration

	randMu sync.Mutex
	rand   *rand.Rand

	events           *reactive.SliceSignal[Event]
	enableLogging    *reactive.BoolSignal
	batchSize        *reactive.Signal[int]
	autoSaveInterval *reactive.Signal[time.Duration]
	monitoring       *reactive.BoolSignal
	recent           *reactive.Computed[[]Event]

	monitorOnce atomic.Bool
	saves       atomic.Int64
}

// New creates the tracker and starts its logging and auto-save effects.
// The returned error carries failures of the effects' first runs; the
// service is usable either way and must be closed with Close.
func New(rt *reactive.Runtime, opts ...Option) (*Service, error) {
	s := &Service{
		rt:            rt,
		logger:        rt.Logger().With("service", "analytics"),
		clock:         RealClock{},
		owner:         reactive.NewOwner(nil),
		statsInterval: DefaultStatsInterval,
	}
	s.initial.logging = true
	s.initial.batchSize = DefaultBatchSize
	s.initial.interval = DefaultAutoSaveInterval
	for _, opt := range opts {
		opt(s)
	}
	if s.saver == nil {
		s.saver = LogSaver{Logger: s.logger}
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.events = reactive.NewSliceSignal[Event](rt, nil)
	s.enableLogging = reactive.NewBoolSignal(rt, s.initial.logging)
	s.batchSize = reactive.NewSignal(rt, s.initial.batchSize)
	s.autoSaveInterval = reactive.NewSignal(rt, s.initial.interval)
	s.monitoring = reactive.NewBoolSignal(rt, false)
	s.recent = reactive.NewComputed(rt, func() []Event {
		events := s.events.Get()
		out := slices.Clone(events[max(0, len(events)-recentEvents):])
		slices.Reverse(out)
		return out
	})

	var errs []error
	rt.WithOwner(s.owner, func() {
		_, err := reactive.NewEffect(rt, s.logEvents, reactive.EffectName("analytics.logging"))
		errs = append(errs, err)
		_, err = reactive.NewEffect(rt, s.autoSave, reactive.EffectName("analytics.autosave"))
		errs = append(errs, err)
	})
	return s, errors.Join(errs...)
}

// Events is the tracked events, oldest first.
func (s *Service) Events() reactive.Readable[[]Event] { return s.events.ReadOnly() }

// EnableLogging reports whether logging and auto-save are on.
func (s *Service) EnableLogging() reactive.Readable[bool] { return s.enableLogging.ReadOnly() }

// BatchSize is the number of events per logged batch.
func (s *Service) BatchSize() reactive.Readable[int] { return s.batchSize.ReadOnly() }

// AutoSaveInterval is the auto-save period.
func (s *Service) AutoSaveInterval() reactive.Readable[time.Duration] {
	return s.autoSaveInterval.ReadOnly()
}

// RecentEvents is the last ten events, newest first.
func (s *Service) RecentEvents() reactive.Readable[[]Event] { return s.recent }

// SavedBatches returns the number of snapshots handed to the Saver.
func (s *Service) SavedBatches() int64 { return s.saves.Load() }

// TrackEvent records an event of the given type. A nil data map is stored
// as an empty one.
func (s *Service) TrackEvent(eventType string, data map[string]any) (Event, error) {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return Event{}, ErrEmptyType
	}
	if data == nil {
		data = map[string]any{}
	}

	e := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: s.clock.Now(),
		Data:      data,
	}
	return e, s.events.Append(e)
}

// TrackRandomEvent records an event of a random type from EventTypes with
// a random value in [0, 100) and source "manual".
func (s *Service) TrackRandomEvent() (Event, error) {
	s.randMu.Lock()
	var typ string
	var value int
	if s.rand != nil {
		typ = EventTypes[s.rand.IntN(len(EventTypes))]
		value = s.rand.IntN(100)
	} else {
		typ = EventTypes[rand.IntN(len(EventTypes))]
		value = rand.IntN(100)
	}
	s.randMu.Unlock()

	return s.TrackEvent(typ, map[string]any{"value": value, "source": "manual"})
}

// ToggleLogging flips the logging flag. Auto-save follows it.
func (s *Service) ToggleLogging() error {
	return s.enableLogging.Toggle()
}

// SetBatchSize changes the batch size used by the logging effect.
func (s *Service) SetBatchSize(n int) error {
	if n < 1 {
		return ErrInvalidBatchSize
	}
	return s.batchSize.Set(n)
}

// SetAutoSaveInterval changes the auto-save period; the running ticker is
// replaced.
func (s *Service) SetAutoSaveInterval(d time.Duration) error {
	if d <= 0 {
		return ErrInvalidInterval
	}
	return s.autoSaveInterval.Set(d)
}

// ClearEvents removes every event.
func (s *Service) ClearEvents() error {
	return s.events.Clear()
}

// SetupAdvancedMonitoring starts the monitoring effect. It re-runs on every
// event change with a one-shot timeout of the current auto-save interval
// and a stats ticker. Calling it again does nothing.
func (s *Service) SetupAdvancedMonitoring() error {
	if !s.monitorOnce.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	s.rt.WithOwner(s.owner, func() {
		_, err = reactive.NewEffect(s.rt, s.monitor, reactive.EffectName("analytics.monitoring"))
	})
	return errors.Join(err, s.monitoring.SetTrue())
}

// State returns a snapshot. Reads are tracked.
func (s *Service) State() State {
	return State{
		TotalEvents:      s.events.Len(),
		RecentEvents:     s.recent.Get(),
		EnableLogging:    s.enableLogging.Get(),
		BatchSize:        s.batchSize.Get(),
		AutoSaveInterval: s.autoSaveInterval.Get().String(),
		Monitoring:       s.monitoring.Get(),
	}
}

// Close disposes the service's effects, which stops every timer.
func (s *Service) Close() error {
	s.cancel()
	err := s.owner.Dispose()
	if serr := s.monitoring.SetFalse(); serr != nil {
		err = errors.Join(err, serr)
	}
	return err
}

// logEvents re-runs on event changes only; the logging flag and the batch
// size are read untracked.
func (s *Service) logEvents(func(reactive.Cleanup)) error {
	events := s.events.Get()
	if !reactive.Untracked(s.rt, s.enableLogging.Get) || len(events) == 0 {
		return nil
	}

	last := events[len(events)-1]
	s.logger.Info("new event tracked", "id", last.ID, "type", last.Type, "data", last.Data)

	batch := reactive.Untracked(s.rt, s.batchSize.Get)
	if len(events)%batch == 0 {
		s.logger.Info("batch reached", "batch_size", batch)
	}
	return nil
}

// autoSave owns one ticker per run.
func (s *Service) autoSave(onCleanup func(reactive.Cleanup)) error {
	interval := s.autoSaveInterval.Get()
	if !s.enableLogging.Get() {
		s.logger.Info("auto-save disabled")
		return nil
	}
	s.logger.Info("auto-save configured", "interval", interval)

	var stopped atomic.Bool
	stop := s.clock.Every(interval, func() {
		if stopped.Load() {
			return
		}
		s.saveSnapshot()
	})
	onCleanup(func() {
		s.logger.Debug("cleanup: canceling auto-save timer")
		stopped.Store(true)
		stop()
	})
	return nil
}

func (s *Service) saveSnapshot() {
	events := reactive.Untracked(s.rt, s.events.Get)
	if len(events) == 0 {
		return
	}
	s.logger.Info("auto-save", "count", len(events))
	if err := s.saver.Save(s.ctx, events); err != nil {
		s.logger.Warn("auto-save failed", "error", err)
		return
	}
	s.saves.Add(1)
}

// monitor owns one timeout and one stats ticker per run.
func (s *Service) monitor(onCleanup func(reactive.Cleanup)) error {
	events := s.events.Get()
	timeout := reactive.Untracked(s.rt, s.autoSaveInterval.Get)
	s.logger.Info("advanced monitoring activated", "events", len(events))

	var stopped atomic.Bool
	stopTimeout := s.clock.AfterFunc(timeout, func() {
		if !stopped.Load() {
			s.logger.Info("timeout monitoring executed")
		}
	})
	stopStats := s.clock.Every(s.statsInterval, func() {
		if stopped.Load() {
			return
		}
		current := reactive.Untracked(s.rt, s.events.Get)
		s.logger.Info("stats", "total_events", len(current))
	})
	onCleanup(func() {
		s.logger.Debug("complete monitoring cleanup")
		stopped.Store(true)
		stopTimeout()
		stopStats()
	})
	return nil
}
