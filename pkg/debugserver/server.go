package debugserver

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/elemtree/internal/errors"
	"github.com/vango-dev/elemtree/pkg/snapshot"
)

// RebuildFunc rebuilds the served snapshot in place.
type RebuildFunc func(ctx context.Context, snap *snapshot.Snapshot) error

// Server serves one snapshot.
type Server struct {
	mu       sync.RWMutex
	snap     *snapshot.Snapshot
	rebuild  RebuildFunc
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	router   chi.Router
	feed     *feed
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. If unset, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer sets the source for /metrics.
// Default: prometheus.DefaultGatherer
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithRebuild enables POST /snapshot/rebuild.
func WithRebuild(fn RebuildFunc) Option {
	return func(s *Server) {
		s.rebuild = fn
	}
}

// New creates a Server for snap.
func New(snap *snapshot.Snapshot, opts ...Option) *Server {
	s := &Server{
		snap:     snap,
		gatherer: prometheus.DefaultGatherer,
		feed:     newFeed(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Route("/snapshot", func(r chi.Router) {
		r.Get("/", s.handleSnapshot)
		r.Get("/elements/{id}", s.handleElement)
		r.Post("/rebuild", s.handleRebuild)
		r.Get("/ws", s.handleWatch)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

type elementJSON struct {
	ID       snapshot.ElementID   `json:"id"`
	Type     string               `json:"type"`
	Debug    string               `json:"debug"`
	Children []snapshot.ElementID `json:"children"`
}

type snapshotJSON struct {
	Roots    []snapshot.ElementID `json:"roots"`
	Elements []elementJSON        `json:"elements"`
}

func (s *Server) element(id snapshot.ElementID) (elementJSON, bool) {
	el, ok := s.snap.Get(id)
	if !ok {
		return elementJSON{}, false
	}
	debug, _ := s.snap.DebugProps(id)
	children := el.Children
	if children == nil {
		children = []snapshot.ElementID{}
	}
	return elementJSON{
		ID:       id,
		Type:     el.TypeID.String(),
		Debug:    debug,
		Children: children,
	}, true
}

// listing builds the JSON form of the snapshot. Callers hold s.mu.
func (s *Server) listing() snapshotJSON {
	out := snapshotJSON{
		Roots:    s.snap.Roots(),
		Elements: make([]elementJSON, 0, s.snap.Len()),
	}
	if out.Roots == nil {
		out.Roots = []snapshot.ElementID{}
	}
	for i := 0; i < s.snap.Len(); i++ {
		el, _ := s.element(snapshot.ElementID(i))
		out.Elements = append(out.Elements, el)
	}
	return out
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch format := r.URL.Query().Get("format"); format {
	case "", "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "%+v", s.snap)
	case "outline":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, s.snap.Outline())
	case "json":
		writeJSON(w, http.StatusOK, s.listing())
	default:
		http.Error(w, "unknown format "+strconv.Quote(format), http.StatusBadRequest)
	}
}

func (s *Server) handleElement(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		http.Error(w, "invalid element id", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	el, ok := s.element(snapshot.ElementID(n))
	if !ok {
		http.Error(w, "element not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, el)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if s.rebuild == nil {
		http.Error(w, "rebuild not configured", http.StatusNotImplemented)
		return
	}

	s.mu.Lock()
	err := s.rebuild(r.Context(), s.snap)
	n := s.snap.Len()
	var listing snapshotJSON
	if err == nil {
		listing = s.listing()
	}
	s.mu.Unlock()

	if err != nil {
		te := errors.FromError(err, "E221")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(te.FormatJSON()))
		return
	}
	s.feed.broadcast(watchMessage{Type: "snapshot", Snapshot: listing})
	writeJSON(w, http.StatusOK, map[string]int{"elements": n})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if stderrors.Is(err, syscall.EADDRINUSE) {
			return errors.New("E240").WithDetail(addr + " is already in use").Wrap(err)
		}
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("debug server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.feed.close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
