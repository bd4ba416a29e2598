package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all the prometheus collectors for the application.
type Metrics struct {
	HTTPRequestLatency *prometheus.HistogramVec
	ErrorRates         *prometheus.CounterVec
	CacheHitRates      *prometheus.GaugeVec
	NPCFPS             *prometheus.GaugeVec
	EventAppendRate    prometheus.Counter
	ActiveConnections  *prometheus.GaugeVec

	// Simulation-core collectors (SPEC_FULL Sec.4.12).
	SimTickDuration       prometheus.Histogram
	SimCommandsProcessed  *prometheus.CounterVec
	SimSeatGrants         *prometheus.CounterVec
	SimSeatDenies         *prometheus.CounterVec
	SimActiveUnits        prometheus.Gauge
	SimActiveConnections  prometheus.Gauge
}

// NewMetrics initializes and returns a new Metrics struct.
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"method", "path", "status"}),
		ErrorRates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "error_rate_total",
			Help: "Total number of errors",
		}, []string{"service", "endpoint", "error_type"}),
		CacheHitRates: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cache_hit_rate",
			Help: "Cache hit rate (0.0-1.0)",
		}, []string{"cache_type"}), // L1, L2
		NPCFPS: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "npc_simulation_fps",
			Help: "NPC simulation ticks per second",
		}, []string{"world_id"}),
		EventAppendRate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "event_store_append_total",
			Help: "Total number of events appended",
		}),
		ActiveConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		}, []string{"type"}), // websocket, database

		SimTickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sim_tick_duration_seconds",
			Help:    "Wall-clock duration of one authoritative simulation tick",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.02, 0.05, 0.1},
		}),
		SimCommandsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_commands_processed_total",
			Help: "Total number of commands drained and applied by the simulation loop",
		}, []string{"type"}),
		SimSeatGrants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seat_grant_total",
			Help: "Total number of successful unit seat acquisitions",
		}, []string{"method"}),
		SimSeatDenies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seat_deny_total",
			Help: "Total number of rejected unit seat acquisition attempts",
		}, []string{"reason"}),
		SimActiveUnits: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sim_active_units",
			Help: "Number of units currently registered with the simulation loop",
		}),
		SimActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sim_active_connections",
			Help: "Number of currently connected simulation session peers",
		}),
	}
}

// Register registers all metrics with the provided registry.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.HTTPRequestLatency,
		m.ErrorRates,
		m.CacheHitRates,
		m.NPCFPS,
		m.EventAppendRate,
		m.ActiveConnections,
		m.SimTickDuration,
		m.SimCommandsProcessed,
		m.SimSeatGrants,
		m.SimSeatDenies,
		m.SimActiveUnits,
		m.SimActiveConnections,
	)
}

// global is the process-wide default Metrics instance. Package-level
// Record*/Set* helpers write through it so that callers deep in the
// simulation core (transport, simloop) don't need a Metrics reference
// threaded through every constructor, mirroring how cmd/game-server's
// websocket package calls metrics.SetActiveConnections/RecordHubBroadcast
// as bare package functions.
var global = NewMetrics()

// registry is the process-wide Prometheus registry global is collected
// through; kept separate from prometheus.DefaultRegisterer so tests that
// build their own Metrics/registry pairs never collide with it.
var registry = prometheus.NewRegistry()

func init() {
	global.Register(registry)
}

// Global returns the process-wide default Metrics instance, for wiring into
// Register at startup.
func Global() *Metrics { return global }

// Handler serves the process-wide registry in the Prometheus exposition
// format, mounted at /metrics by simserver's router.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Middleware times every HTTP request through HTTPRequestLatency, keyed by
// method, request URL path, and response status text. WebSocket upgrade routes must
// bypass it (hijacking breaks once the response is wrapped), the same
// carve-out cmd/game-server/main.go applies to its own game/ws route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		global.HTTPRequestLatency.WithLabelValues(r.Method, r.URL.Path, http.StatusText(rec.status)).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the status code a handler wrote, since
// http.ResponseWriter doesn't expose it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RecordSimTick records one tick's wall-clock duration.
func RecordSimTick(d time.Duration) {
	global.SimTickDuration.Observe(d.Seconds())
}

// RecordSimCommand increments the processed-command counter for typ.
func RecordSimCommand(typ string) {
	global.SimCommandsProcessed.WithLabelValues(typ).Inc()
}

// RecordSimSeatGrant increments the seat-grant counter for method.
func RecordSimSeatGrant(method string) {
	global.SimSeatGrants.WithLabelValues(method).Inc()
}

// RecordSimSeatDeny increments the seat-deny counter for reason.
func RecordSimSeatDeny(reason string) {
	global.SimSeatDenies.WithLabelValues(reason).Inc()
}

// SetSimActiveUnits sets the current registered-unit gauge.
func SetSimActiveUnits(n int) {
	global.SimActiveUnits.Set(float64(n))
}

// SetSimActiveConnections sets the current connected-peer gauge.
func SetSimActiveConnections(n int) {
	global.SimActiveConnections.Set(float64(n))
}
