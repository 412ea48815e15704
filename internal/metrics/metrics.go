package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, route pattern, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// SolverRuns counts solver invocations by kind and outcome
	SolverRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solver_runs_total", Help: "Solver runs by kind and status."},
		[]string{"kind", "status"},
	)
	// SolverDuration tracks wall-clock solve time in seconds
	SolverDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "solver_duration_seconds", Help: "Solver wall-clock time in seconds.", Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120}},
		[]string{"kind"},
	)
	// AnnealLevels records temperature levels per annealing run
	AnnealLevels = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "anneal_temperature_levels", Help: "Temperature levels per annealing run.", Buckets: prometheus.ExponentialBuckets(1, 2, 12)},
	)
	// AnnealStops counts annealing runs by stop reason
	AnnealStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "anneal_stops_total", Help: "Annealing runs by stop reason."},
		[]string{"reason"},
	)
	// BrokerEvents counts published run events by broker backend
	BrokerEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "broker_events_total", Help: "Run events published by backend."},
		[]string{"backend"},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests, HTTPDuration)
		Registry.MustRegister(SolverRuns, SolverDuration, AnnealLevels, AnnealStops, BrokerEvents)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
