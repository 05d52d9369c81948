// Package metrics exposes Prometheus collectors for analyses and sessions.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var once sync.Once

var (
	// AnalysesTotal counts analysis calls, labeled by input source and outcome.
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nutrilens",
		Name:      "analyses_total",
		Help:      "Total number of analysis calls, labeled by input source and outcome.",
	}, []string{"source", "outcome"})

	// AnalysisDurationSeconds is the time spent waiting for the model.
	AnalysisDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nutrilens",
		Name:      "analysis_duration_seconds",
		Help:      "Time spent on one analysis call, model round trip included.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
	}, []string{"source"})

	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nutrilens",
		Name:      "active_sessions",
		Help:      "Number of open websocket sessions.",
	})
)

// Register registers the collectors with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysesTotal,
			AnalysisDurationSeconds,
			ActiveSessions,
		)
	})
}

// ObserveAnalysis records one finished analysis call.
func ObserveAnalysis(source, outcome string, elapsed time.Duration) {
	AnalysesTotal.WithLabelValues(source, outcome).Inc()
	AnalysisDurationSeconds.WithLabelValues(source).Observe(elapsed.Seconds())
}

// Handler registers the collectors and serves the default registry.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}
