package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the bridge.
type Metrics struct {
	EventsReceived   prometheus.Counter
	CommandsSent     prometheus.Counter
	CallbacksSent    *prometheus.CounterVec
	RequestFailures  *prometheus.CounterVec
	DispatchDuration prometheus.Histogram
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		EventsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tfbridge_events_received_total",
			Help: "Total lifecycle events received from the control plane",
		}),
		CommandsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tfbridge_commands_sent_total",
			Help: "Total commands dispatched to fulfillment servers",
		}),
		CallbacksSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tfbridge_callbacks_sent_total",
			Help: "Callbacks posted to the control plane by terminal status",
		}, []string{"status"}),
		RequestFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tfbridge_request_failures_total",
			Help: "Failed requests by failure code",
		}, []string{"code"}),
		DispatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tfbridge_dispatch_duration_seconds",
			Help:    "Time spent resolving a server and submitting a command",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementEventsReceived() {
	if m != nil {
		m.EventsReceived.Inc()
	}
}

func (m *Metrics) IncrementCommandsSent() {
	if m != nil {
		m.CommandsSent.Inc()
	}
}

func (m *Metrics) IncrementCallbacksSent(status string) {
	if m != nil {
		m.CallbacksSent.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncrementRequestFailures(code string) {
	if m != nil {
		m.RequestFailures.WithLabelValues(code).Inc()
	}
}
