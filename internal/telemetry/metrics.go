package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesGenerated counts emitted messages per duty kind.
	MessagesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "msggen_messages_total",
		Help: "Number of duty messages generated, by kind.",
	}, []string{"kind"})

	// SlotsResolved counts slot boundaries for which duties were resolved.
	SlotsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "msggen_slots_resolved_total",
		Help: "Number of slot boundaries resolved into duties.",
	})

	// QueueDepth tracks messages resolved but not yet pulled by the consumer.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "msggen_queue_depth",
		Help: "Messages buffered for the consumer.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
