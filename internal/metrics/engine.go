package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "spvstore"

var (
	engineOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "operations_total",
		Help:      "Count of engine operations by outcome.",
	}, []string{"operation", "outcome"})
	engineOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "operation_duration_seconds",
		Help:      "Duration of engine operations.",
		Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	}, []string{"operation", "outcome"})
)

// Engine tracks ingestion and validation outcomes.
type Engine struct{}

// NewEngine creates an Engine metrics collector.
func NewEngine() *Engine {
	return &Engine{}
}

// Observe records one engine call. Outcomes are stored, duplicate, rejected,
// valid, invalid, unknown or error.
func (Engine) Observe(operation, outcome string, started time.Time) {
	engineOperationsTotal.WithLabelValues(operation, outcome).Inc()
	engineOperationDuration.WithLabelValues(operation, outcome).Observe(time.Since(started).Seconds())
}
