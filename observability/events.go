package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"launchpad/core/events"
)

type eventMetrics struct {
	emitted *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking engine events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of engine events segmented by event type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.emitted)
	})
	return eventRegistry
}

// Emit implements events.Emitter so the registry can sit in an emitter fanout.
func (m *eventMetrics) Emit(evt events.Event) {
	if m == nil || evt == nil {
		return
	}
	m.emitted.WithLabelValues(evt.EventType()).Inc()
}
