// Package api is the localhost observability sidecar: a chi status
// router, prometheus metrics, pprof, and a websocket status stream. It
// never touches simulation state directly — the engine hands it sampling
// functions.
package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Server combines the status router with the websocket hub.
type Server struct {
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
}

// NewServer builds the server. No listener or broadcast loop starts until
// Start, which keeps construction testable; the default rate limiter's
// cleanup goroutine does start here (Stop ends it).
func NewServer(cfg RouterConfig) *Server {
	s := &Server{
		wsHub: NewWebSocketHub(cfg.StatusFunc),
	}
	if cfg.RateLimiter == nil {
		cfg.RateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)
	}
	s.rateLimiter = cfg.RateLimiter
	s.router = NewRouter(cfg)
	s.router.Get("/ws", s.wsHub.Handle)
	return s
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler { return s.router }

// Start launches the listener and the websocket broadcast loop.
func (s *Server) Start(addr string) error {
	s.wsHub.Start()
	log.Printf("status API on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

// Stop shuts the background workers down.
func (s *Server) Stop() {
	s.wsHub.Stop()
	s.rateLimiter.Stop()
}
