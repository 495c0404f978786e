package internal

import (
	"github.com/ananthvk/minikv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const unknownCommandLabel = "unknown"

type Metrics struct {
	Connections       prometheus.Counter
	ActiveConnections prometheus.Gauge
	Commands          *prometheus.CounterVec
	CommandErrors     *prometheus.CounterVec
	ProtocolErrors    prometheus.Counter
	RateLimited       prometheus.Counter
}

// NewMetrics registers the server metrics on reg. The key count is read from store on every scrape.
func NewMetrics(reg prometheus.Registerer, store *minikv.Store) *Metrics {
	factory := promauto.With(reg)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "minikv",
		Name:      "keys",
		Help:      "Number of keys in the store.",
	}, func() float64 {
		return float64(store.Size())
	})

	return &Metrics{
		Connections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "minikv",
			Name:      "connections_total",
			Help:      "Number of accepted client connections.",
		}),
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "minikv",
			Name:      "connections_active",
			Help:      "Number of currently open client connections.",
		}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minikv",
			Name:      "commands_total",
			Help:      "Number of executed commands.",
		}, []string{"command"}),
		CommandErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minikv",
			Name:      "command_errors_total",
			Help:      "Number of commands answered with an error reply.",
		}, []string{"command"}),
		ProtocolErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "minikv",
			Name:      "protocol_errors_total",
			Help:      "Number of requests rejected because they were not valid RESP.",
		}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "minikv",
			Name:      "rate_limited_total",
			Help:      "Number of commands rejected by the per connection rate limit.",
		}),
	}
}

func (m *Metrics) observe(result Result) {
	label := result.Command
	if label == "" {
		label = unknownCommandLabel
	}
	m.Commands.WithLabelValues(label).Inc()
	if result.Value.IsError() {
		m.CommandErrors.WithLabelValues(label).Inc()
	}
}
