// Package serve implements the academy fragment server: server-rendered
// HTML fragments for the user management screens, form processing that
// answers 204 + HX-Trigger on success, and an SSE stream that pushes
// refresh triggers to connected consoles.
package serve

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/marcus/academy/internal/store"
)

// ServeConfig holds the configuration for the HTTP server.
type ServeConfig struct {
	Port         int
	Addr         string
	Token        string
	CORSOrigin   string
	PingInterval time.Duration
}

// Server is the academy fragment HTTP server.
type Server struct {
	store  *store.Store
	config ServeConfig
	mux    *http.ServeMux
	hub    *Hub
	http   *http.Server
}

// NewServer creates a new Server and registers all routes and the
// middleware chain.
func NewServer(st *store.Store, config ServeConfig) *Server {
	if config.PingInterval <= 0 {
		config.PingInterval = 15 * time.Second
	}

	s := &Server{
		store:  st,
		config: config,
		mux:    http.NewServeMux(),
		hub:    NewHub(config.PingInterval),
	}

	s.registerRoutes()
	return s
}

// Hub returns the server's SSE hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the mux wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)

	// Wrap order: outermost first when applied, so we apply innermost first.
	// Final order (outermost to innermost):
	//   recovery -> logging -> CORS -> auth -> handler
	h = s.authMiddleware(h)
	h = s.corsMiddleware(h)
	h = s.loggingMiddleware(h)
	h = s.recoveryMiddleware(h)

	return h
}

// ListenAndServe starts the HTTP server on the configured address and port,
// and handles graceful shutdown when the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Addr, s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the server on an existing listener. The SSE hub is started
// alongside and stopped on shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.hub.Start(ctx)
	defer s.hub.Stop()

	s.http = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE connections stay open
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server. If the server has not been
// started, this is a no-op.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// registerRoutes registers the fragment routes.
func (s *Server) registerRoutes() {
	// Health (read)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// User list fragment
	s.mux.HandleFunc("GET /users/partials/list", s.handleUserList)

	// Create
	s.mux.HandleFunc("GET /users/new", s.handleUserCreateForm)
	s.mux.HandleFunc("POST /users/new", s.handleUserCreate)

	// Update
	s.mux.HandleFunc("GET /users/{id}/edit", s.handleUserEditForm)
	s.mux.HandleFunc("POST /users/{id}/edit", s.handleUserEdit)

	// Delete
	s.mux.HandleFunc("GET /users/{id}/delete", s.handleUserDeleteConfirm)
	s.mux.HandleFunc("POST /users/{id}/delete", s.handleUserDelete)

	// Server-pushed refresh triggers
	s.mux.HandleFunc("GET /events", s.hub.handleEvents)
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// ============================================================================
// Middleware
// ============================================================================

// statusRecorder captures the response status code for logging.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the underlying writer so SSE keeps working through the
// logging middleware.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// recoveryMiddleware catches panics, logs the stack trace, and returns a
// plain 500.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := debug.Stack()
				slog.Error("panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(stack),
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request with method, path, status code, and
// duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sr, r)
		slog.Info("req",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sr.code,
			"dur", time.Since(start).String(),
		)
	})
}

// corsMiddleware handles CORS preflight and sets response headers when
// CORSOrigin is configured. If no CORS origin is configured, the middleware
// is a no-op pass-through.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.CORSOrigin == "" {
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		if s.config.CORSOrigin != "*" && s.config.CORSOrigin != origin {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		// Let browser-side fetch wrappers read the out-of-band trigger header.
		w.Header().Set("Access-Control-Expose-Headers", "HX-Trigger")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates the Bearer token when the server is configured
// with a token. GET /health is always exempt from authentication.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No token configured - pass through
		if s.config.Token == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Skip auth for health check
		if r.Method == http.MethodGet && r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "invalid authorization format", http.StatusUnauthorized)
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		// Constant-time compare so response timing leaks nothing about
		// how much of the token matched.
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.config.Token)) != 1 {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
