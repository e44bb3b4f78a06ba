package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Kryostatic94/lsx-signal-workshop/pkg/reactive"
)

// SnapshotFunc returns the state to publish. It runs inside an effect, so
// every signal or computed value it reads is tracked. The returned value must
// not be mutated afterwards and must marshal to JSON.
type SnapshotFunc func() any

// Option configures a Server.
type Option func(*Server)

// WithGatherer sets the registry exposed on /metrics.
// Default: prometheus.DefaultGatherer
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown in ListenAndServe.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// Server publishes runtime snapshots over HTTP and WebSocket.
type Server struct {
	rt       *reactive.Runtime
	snapshot SnapshotFunc

	hub    *Hub
	router chi.Router
	effect *reactive.Effect

	updates chan any
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	gatherer        prometheus.Gatherer
	logger          *slog.Logger
	shutdownTimeout time.Duration

	closeOnce sync.Once
}

// New creates a Server and starts publishing snapshots.
func New(rt *reactive.Runtime, snapshot SnapshotFunc, opts ...Option) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		rt:              rt,
		snapshot:        snapshot,
		hub:             NewHub(),
		updates:         make(chan any, 1),
		ctx:             ctx,
		cancel:          cancel,
		done:            make(chan struct{}),
		gatherer:        prometheus.DefaultGatherer,
		logger:          slog.Default(),
		shutdownTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "inspect")
	s.router = s.routes()

	go s.pump()

	effect, err := reactive.NewEffect(rt, func(func(reactive.Cleanup)) error {
		s.offer(s.snapshot())
		return nil
	}, reactive.EffectName("inspect.publish"))
	s.effect = effect
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/state", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, r, reactive.Untracked[any](s.rt, s.snapshot))
	})
	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, r, s.rt.Stats())
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", s.hub.HandleWebSocket)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// offer hands v to the publisher without blocking, replacing an unsent
// snapshot. Called from the publish effect only.
func (s *Server) offer(v any) {
	select {
	case s.updates <- v:
		return
	default:
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- v:
	default:
	}
}

func (s *Server) pump() {
	defer close(s.done)
	var seq uint64
	for {
		select {
		case <-s.ctx.Done():
			return
		case v := <-s.updates:
			seq++
			if err := s.hub.Broadcast(Message{Type: MessageState, Seq: seq, State: v}); err != nil {
				s.logger.Warn("snapshot broadcast failed", "seq", seq, "error", err)
				s.hub.Broadcast(Message{Type: MessageError, Seq: seq, Error: err.Error()})
			}
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response failed",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspector listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// Hijacked websocket connections are not closed by Shutdown.
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// Close stops publishing and disconnects all WebSocket clients.
// Close is idempotent.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.effect != nil {
			err = s.effect.Dispose()
		}
		s.cancel()
		<-s.done
		s.hub.Close()
	})
	return err
}
