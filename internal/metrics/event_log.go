package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventLogFlushedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "event_log",
		Name:      "events_total",
		Help:      "Count of events handed to the event log by status.",
	}, []string{"status"})
)

// EventLog tracks events written to or dropped by the event log.
type EventLog struct{}

// NewEventLog creates an EventLog metrics collector.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// ObserveFlush records a flushed batch of n events.
func (EventLog) ObserveFlush(n int, err error) {
	eventLogFlushedTotal.WithLabelValues(statusOf(err)).Add(float64(n))
}

// ObserveDropped records events discarded because the buffer was full.
func (EventLog) ObserveDropped(n int) {
	eventLogFlushedTotal.WithLabelValues("dropped").Add(float64(n))
}
