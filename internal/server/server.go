// package server contains the router, middleware & handlers for the playlist HTTP service
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifetch/internal/services"
	"github.com/desertthunder/spotifetch/internal/shared"
)

const shutdownTimeout = 10 * time.Second

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, panic recovery, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the playlist service.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the patterns this handler serves, e.g. "GET /healthz"
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Server serves playlists fetched through a [services.PlaylistFetcher] over HTTP.
type Server struct {
	httpServer *http.Server
	router     Router
	logger     *log.Logger
}

// New creates a Server listening on addr with logging and recovery middleware and the
// playlist and health routes registered.
func New(addr string, fetcher services.PlaylistFetcher, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = shared.WithLogger(logger, "component", "server")

	router := NewBasicRouter()
	router.Use(LoggingMiddleware(logger), RecoverMiddleware(logger))
	router.Handler(NewPlaylistHandler(fetcher, logger))
	router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(HealthHandler))

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		router: router,
		logger: logger,
	}
}

// Handler returns the root handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
