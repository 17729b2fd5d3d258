package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the bot. All methods are safe
// to call on a nil receiver so tests and tools can run without a registry.
type Metrics struct {
	apiRequests *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec
	commands    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shoplistbot",
			Name:      "api_requests_total",
			Help:      "Remote shopping-list API requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shoplistbot",
			Name:      "api_request_duration_seconds",
			Help:      "Remote shopping-list API request latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shoplistbot",
			Name:      "commands_total",
			Help:      "Handled Telegram commands by name and outcome.",
		}, []string{"command", "outcome"}),
	}
	reg.MustRegister(m.apiRequests, m.apiDuration, m.commands)
	return m
}

// ObserveAPIRequest records one remote API call.
func (m *Metrics) ObserveAPIRequest(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(operation, outcome).Inc()
	m.apiDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveCommand records one handled Telegram command.
func (m *Metrics) ObserveCommand(command, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}
