package metrics

import (
	"time"

	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	relayerProcessBlockTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "relayer",
		Name:      "process_block_total",
		Help:      "Count of blocks relayed into the store.",
	}, []string{"network", "status"})

	relayerProcessBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "relayer",
		Name:      "process_block_duration_seconds",
		Help:      "Duration of relaying one block.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})

	relayerValidatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "relayer",
		Name:      "validated_transactions_total",
		Help:      "Count of transactions proven by the relayer.",
	}, []string{"network"})

	relayerHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "relayer",
		Name:      "height",
		Help:      "Height of the last relayed block.",
	}, []string{"network"})
)

// Relayer tracks metrics for the block relayer.
type Relayer struct {
	network model.Network
}

// NewRelayer constructs a Relayer with defaults.
func NewRelayer(network model.Network) *Relayer {
	if network == "" {
		network = "unknown"
	}
	return &Relayer{network: network}
}

// ObserveBlock records the outcome of relaying the block at height.
func (m Relayer) ObserveBlock(err error, height int64, validated int, started time.Time) {
	status := statusOf(err)
	relayerProcessBlockTotal.WithLabelValues(string(m.network), status).Inc()
	relayerProcessBlockDuration.WithLabelValues(string(m.network), status).Observe(time.Since(started).Seconds())
	if err != nil {
		return
	}
	relayerValidatedTotal.WithLabelValues(string(m.network)).Add(float64(validated))
	relayerHeight.WithLabelValues(string(m.network)).Set(float64(height))
}
