package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Status is one engine status sample served over the API and the
// websocket stream.
type Status struct {
	Map             string `json:"map"`
	ServerState     string `json:"server_state"`
	ServerTime      int32  `json:"server_time_ms"`
	FrameCount      uint64 `json:"frame_count"`
	GameSyscalls    uint64 `json:"game_syscalls"`
	ClientSyscalls  uint64 `json:"client_syscalls"`
	ClientConnected bool   `json:"client_connected"`
	UIActive        bool   `json:"ui_active"`
	LinkedEntities  int    `json:"linked_entities"`
}

// RouterConfig carries the dependencies of the status router. Functions
// instead of engine types keep this package mockable and dependency-free.
type RouterConfig struct {
	// StatusFunc samples the engine. Required.
	StatusFunc func() Status
	// ViewFunc renders the debug top-down view as PNG. Optional.
	ViewFunc func() []byte
	// ConsoleFunc queues a console command line. Optional.
	ConsoleFunc func(line string)

	RateLimiter *IPRateLimiter
}

// NewRouter builds the chi router for the status API.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST"},
	}))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	}

	r.Get("/api/status", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cfg.StatusFunc())
	})

	r.Get("/api/ratelimit", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if cfg.RateLimiter != nil {
			json.NewEncoder(w).Encode(cfg.RateLimiter.GetStats())
			return
		}
		w.Write([]byte("{}"))
	})

	if cfg.ViewFunc != nil {
		r.Get("/debug/view.png", func(w http.ResponseWriter, req *http.Request) {
			png := cfg.ViewFunc()
			if png == nil {
				http.Error(w, "no world loaded", http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			w.Write(png)
		})
	}

	if cfg.ConsoleFunc != nil {
		r.Post("/api/console", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Command string `json:"command"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Command == "" {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			cfg.ConsoleFunc(body.Command)
			w.WriteHeader(http.StatusAccepted)
		})
	}

	return r
}
