// Package server serves the flowguide web UI and its JSON API.
//
// The server holds no navigation state of its own: every request loads the
// caller's session from a [session.Store], applies one event through the
// [pipeline.Runner] and writes the new state back. Events for the same
// session are serialized; different sessions run in parallel.
//
// # Routes
//
//	GET  /                              home page
//	GET  /flowchart_explorer            explorer page
//	GET  /guided_selection_flowchart    guided page
//	GET  /api/view                      refresh the current view
//	POST /api/route    {"path": "/..."} route change
//	POST /api/select   {"id": "..."}    node click
//	POST /api/reset                     reset to the full graph
//	GET  /api/view.svg, /api/view.dot   export the current view
//	GET  /metrics                       Prometheus metrics
//	GET  /healthz                       liveness probe
//
// Any other path renders the 404 page.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowguide/pkg/navigate"
	"github.com/matzehuels/flowguide/pkg/pipeline"
	"github.com/matzehuels/flowguide/pkg/session"
)

// CookieName is the session cookie.
const CookieName = "flowguide_session"

// Default timeouts.
const (
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultJanitorInterval = 10 * time.Minute
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// Options configures a Server. Zero values select defaults.
type Options struct {
	// TTL is the session lifetime, extended on every event.
	TTL time.Duration

	// Secure marks the session cookie Secure (HTTPS only).
	Secure bool

	// Metrics serves /metrics. Nil disables the route.
	Metrics http.Handler

	Logger *log.Logger
}

// Server is the HTTP shell around a pipeline runner.
type Server struct {
	runner  *pipeline.Runner
	store   session.Store
	ttl     time.Duration
	secure  bool
	metrics http.Handler
	logger  *log.Logger
	locks   *keyedMutex
	router  chi.Router
}

// New creates a server. The caller owns store and runner and closes them.
func New(runner *pipeline.Runner, store session.Store, opts Options) *Server {
	s := &Server{
		runner:  runner,
		store:   store,
		ttl:     opts.TTL,
		secure:  opts.Secure,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		locks:   newKeyedMutex(),
	}
	if s.ttl <= 0 {
		s.ttl = session.DefaultTTL
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get(navigate.PathHome, s.handlePage)
	r.Get(navigate.PathExplorer, s.handlePage)
	r.Get(navigate.PathGuided, s.handlePage)
	r.NotFound(s.handleNotFound)

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Post("/route", s.handleRoute)
		r.Post("/select", s.handleSelect)
		r.Post("/reset", s.handleReset)
		r.Get("/view.{format}", s.handleArtifact)
	})

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// RunJanitor removes expired sessions every interval until ctx is canceled.
func (s *Server) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.store.Cleanup(ctx); err != nil {
				s.logger.Warn("session cleanup failed", "error", err)
			}
		}
	}
}

// =============================================================================
// Per-session locking
// =============================================================================

// keyedMutex serializes work per key. Entries are reference counted and
// dropped when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock acquires the lock for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
