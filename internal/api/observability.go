package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality (no per-entity or per-client labels).
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "engine_tick_duration_seconds",
		Help:    "Time spent in one authoritative simulation tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	})

	frameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "engine_frame_duration_seconds",
		Help:    "Time spent in one scheduler frame",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.033, 0.05, 0.1},
	})

	vmSyscalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vm_syscalls_total",
		Help: "System calls crossing the host boundary",
	}, []string{"module"}) // bounded: "game", "cgame", "ui"

	vmAborts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vm_aborts_total",
		Help: "Virtual machines discarded after a trap",
	}, []string{"module"})

	snapshotsBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snapshots_built_total",
		Help: "Per-client snapshots captured",
	})

	serverTimeGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "server_time_ms",
		Help: "Authoritative simulation time",
	})

	entityCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linked_entity_count",
		Help: "Entities currently linked into the world sectors",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debug_connection_rejected_total",
		Help: "Debug-server connections rejected",
	}, []string{"reason"}) // bounded: "rate_limit", "ws_limit"

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active status-stream connections",
	})
)

// RecordTick observes one simulation tick's duration.
func RecordTick(d time.Duration) { tickDuration.Observe(d.Seconds()) }

// RecordFrame observes one scheduler frame's duration.
func RecordFrame(d time.Duration) { frameDuration.Observe(d.Seconds()) }

// RecordSyscalls adds boundary crossings for a module.
func RecordSyscalls(module string, n uint64) { vmSyscalls.WithLabelValues(module).Add(float64(n)) }

// RecordAbort counts a discarded VM.
func RecordAbort(module string) { vmAborts.WithLabelValues(module).Inc() }

// RecordSnapshot counts one captured snapshot.
func RecordSnapshot() { snapshotsBuilt.Inc() }

// SetServerTime publishes the authoritative clock.
func SetServerTime(ms int32) { serverTimeGauge.Set(float64(ms)) }

// SetEntityCount publishes the linked-entity census.
func SetEntityCount(n int) { entityCount.Set(float64(n)) }

// RecordConnectionRejected counts a rejected debug connection.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// ObservabilityConfig configures the debug server.
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // MUST stay on localhost in production
	BasicAuthUser string
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults.
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// StartDebugServer starts the internal observability server: pprof,
// prometheus metrics, and a health probe. It MUST bind to localhost only
// unless explicitly overridden.
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("debug server disabled")
		return nil
	}

	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("debug server forced to localhost")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var handler http.Handler = mux
	if cfg.BasicAuthUser != "" {
		handler = basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}

	go func() {
		log.Printf("debug server on %s (pprof, metrics)", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("debug server error: %v", err)
		}
	}()
	return nil
}

func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
