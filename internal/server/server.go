// Package server implements the HTTP API for seat assignment.
//
// The API mirrors a small solver service: one POST endpoint per debate format
// taking a participant list and returning the optimal room assignments, plus a
// health check. Solves run on a bounded worker pool under a deadline, and
// completed responses are cached keyed by the request content, which is sound
// because identical inputs always solve to identical outputs.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/hardstucks/podium/pkg/cache"
	"github.com/hardstucks/podium/pkg/seating"
)

// Server wires the router, cache, worker pool and configuration together.
type Server struct {
	cfg    *Config
	logger *log.Logger
	cache  cache.Cache
	pool   *Pool
	router chi.Router
}

// New creates a server. If c is nil, a NullCache is used (caching disabled).
func New(cfg *Config, logger *log.Logger, c cache.Cache) *Server {
	if c == nil {
		c = cache.NewNullCache()
	}
	s := &Server{
		cfg:    cfg,
		logger: logger,
		cache:  c,
		pool:   NewPool(cfg.Workers, time.Duration(cfg.SolveTimeout)),
	}
	s.router = s.routes()
	return s
}

// NewCache builds the cache backend selected by the configuration: Redis when
// an address is configured, in-process memory otherwise.
func NewCache(ctx context.Context, cfg *Config, logger *log.Logger) (cache.Cache, error) {
	if cfg.Redis.Addr == "" {
		logger.Debug("using in-memory result cache")
		return cache.NewMemoryCache(), nil
	}
	logger.Debug("connecting to redis result cache", "addr", cfg.Redis.Addr)
	return cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
}

// Handler returns the HTTP handler, exposed for tests.
func (s *Server) Handler() http.Handler { return s.router }

// routes builds the middleware chain and route table.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/healthz", s.handleHealth)
	r.Post("/bp", s.handleSolve(seating.FormatBritishParliamentary))
	r.Post("/traditional", s.handleSolve(seating.FormatTraditional))

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// =============================================================================
// Middleware
// =============================================================================

type ctxKey int

const requestIDKey ctxKey = 0

// requestID tags every request with a UUID, echoed in the X-Request-ID header
// and attached to the request context for log correlation.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// logRequests logs one line per request with method, path, status and latency.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"id", r.Context().Value(requestIDKey),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

// cors applies the configured origin allowlist and answers preflights.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
