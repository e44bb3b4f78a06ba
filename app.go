package workshop

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/Kryostatic94/lsx-signal-workshop/internal/config"
	"github.com/Kryostatic94/lsx-signal-workshop/pkg/inspect"
	"github.com/Kryostatic94/lsx-signal-workshop/pkg/reactive"
	"github.com/Kryostatic94/lsx-signal-workshop/pkg/services/analytics"
	"github.com/Kryostatic94/lsx-signal-workshop/pkg/services/counter"
	"github.com/Kryostatic94/lsx-signal-workshop/pkg/services/todo"
	"github.com/Kryostatic94/lsx-signal-workshop/pkg/telemetry"
)

// =============================================================================
// App Type
// =============================================================================

// App owns one reactive runtime and the services built on it.
//
// Create an App with workshop.New():
//
//	app, err := workshop.New(config.New(), workshop.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer app.Close()
type App struct {
	config *config.Config
	logger *slog.Logger

	rt       *reactive.Runtime
	registry *prometheus.Registry

	counter   *counter.Service
	todos     *todo.Service
	analytics *analytics.Service
}

// Snapshot is the state of all services at one point in time.
type Snapshot struct {
	Counter   counter.State   `json:"counter"`
	Todos     todo.State      `json:"todos"`
	Analytics analytics.State `json:"analytics"`
}

// Option configures an App.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	registry       *prometheus.Registry
	tracerProvider trace.TracerProvider
	analytics      []analytics.Option
	todo           []todo.Option
}

// WithLogger sets the application logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry sets the Prometheus registry the runtime metrics are
// registered with. Default: a fresh registry per App.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithTracerProvider sets the provider used when tracing is enabled.
// Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithAnalyticsOptions passes extra options to the analytics service, after
// the ones derived from the configuration.
func WithAnalyticsOptions(opts ...analytics.Option) Option {
	return func(o *options) {
		o.analytics = append(o.analytics, opts...)
	}
}

// WithTodoOptions passes extra options to the todo service.
func WithTodoOptions(opts ...todo.Option) Option {
	return func(o *options) {
		o.todo = append(o.todo, opts...)
	}
}

// New validates cfg and builds the runtime, its observers and the services.
// A nil cfg uses config.New().
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := o.registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	rt := reactive.NewRuntime(
		reactive.WithLogger(logger.With("component", "reactive")),
		reactive.WithObserver(buildObserver(cfg, logger, registry, o.tracerProvider)),
		reactive.WithMaxEffectRuns(cfg.Runtime.MaxEffectRuns),
		reactive.WithStrictEffects(cfg.StrictEffectMode()),
	)

	app := &App{
		config:   cfg,
		logger:   logger,
		rt:       rt,
		registry: registry,
		counter:  counter.New(rt),
		todos:    todo.New(rt, o.todo...),
	}

	analyticsOpts := append([]analytics.Option{
		analytics.WithEnableLogging(cfg.Analytics.EnableLogging),
		analytics.WithBatchSize(cfg.Analytics.BatchSize),
		analytics.WithAutoSaveInterval(cfg.AutoSaveInterval()),
		analytics.WithStatsInterval(cfg.StatsInterval()),
	}, o.analytics...)

	svc, err := analytics.New(rt, analyticsOpts...)
	app.analytics = svc
	if err != nil {
		svc.Close()
		return nil, err
	}

	logger.Debug("workshop started",
		"max_effect_runs", cfg.Runtime.MaxEffectRuns,
		"strict_effects", cfg.StrictEffectMode(),
		"metrics", cfg.Telemetry.Metrics,
		"tracing", cfg.Telemetry.Tracing,
	)
	return app, nil
}

func buildObserver(cfg *config.Config, logger *slog.Logger, registry *prometheus.Registry, tp trace.TracerProvider) reactive.Observer {
	var observers []reactive.Observer
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		observers = append(observers, telemetry.NewLogObserver(logger))
	}
	if cfg.Telemetry.Metrics {
		observers = append(observers, telemetry.NewMetrics(
			telemetry.WithRegistry(registry),
			telemetry.WithNamespace(cfg.Telemetry.Namespace),
		))
	}
	if cfg.Telemetry.Tracing {
		tracerOpts := []telemetry.OTelOption{
			telemetry.WithTracerName(cfg.Telemetry.Namespace + "/reactive"),
		}
		if tp != nil {
			tracerOpts = append(tracerOpts, telemetry.WithTracerProvider(tp))
		}
		observers = append(observers, telemetry.NewTracer(tracerOpts...))
	}
	return telemetry.Multi(observers...)
}

// =============================================================================
// Accessors
// =============================================================================

// Runtime returns the reactive runtime shared by all services.
func (a *App) Runtime() *reactive.Runtime { return a.rt }

// Config returns the configuration the App was built from.
func (a *App) Config() *config.Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Registry returns the Prometheus registry holding the runtime metrics.
func (a *App) Registry() *prometheus.Registry { return a.registry }

// Counter returns the counter service.
func (a *App) Counter() *counter.Service { return a.counter }

// Todos returns the todo service.
func (a *App) Todos() *todo.Service { return a.todos }

// Analytics returns the analytics service.
func (a *App) Analytics() *analytics.Service { return a.analytics }

// =============================================================================
// Snapshot & Inspector
// =============================================================================

// Snapshot reads every service's state. Inside an effect or computed the
// reads are tracked.
func (a *App) Snapshot() Snapshot {
	return Snapshot{
		Counter:   a.counter.State(),
		Todos:     a.todos.State(),
		Analytics: a.analytics.State(),
	}
}

// NewInspector creates an inspector publishing Snapshot on every change.
// The caller closes it before closing the App.
func (a *App) NewInspector(opts ...inspect.Option) (*inspect.Server, error) {
	base := []inspect.Option{
		inspect.WithGatherer(a.registry),
		inspect.WithLogger(a.logger),
	}
	return inspect.New(a.rt, func() any { return a.Snapshot() }, append(base, opts...)...)
}

// Close stops the analytics timers and effects. Close is idempotent.
func (a *App) Close() error {
	var errs []error
	if a.analytics != nil {
		errs = append(errs, a.analytics.Close())
	}
	return errors.Join(errs...)
}
