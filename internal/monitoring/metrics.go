// Package monitoring exposes Prometheus metrics for the chat client.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the client. Each instance owns
// its registry, so tests can construct metrics freely.
type Metrics struct {
	registry *prometheus.Registry

	// Connection metrics
	ConnectionUp    prometheus.Gauge
	Reconnects      prometheus.Counter
	TransportErrors prometheus.Counter

	// Channel metrics, labeled by direction ("in"/"out") and event name
	ChannelEvents *prometheus.CounterVec

	// Session metrics
	MessagesSent     prometheus.Counter
	MessagesReceived prometheus.Counter
	MessagesRejected prometheus.Counter

	// API metrics, labeled by endpoint and outcome
	APICalls *prometheus.CounterVec
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		ConnectionUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chat_connection_up",
			Help: "Whether the duplex channel is currently connected (0 or 1)",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_reconnects_total",
			Help: "Number of connection attempts after the first",
		}),
		TransportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_transport_errors_total",
			Help: "Handshake failures and mid-session transport errors",
		}),
		ChannelEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_channel_events_total",
			Help: "Duplex channel events by direction and event name",
		}, []string{"direction", "event"}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "User messages emitted to the server",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_received_total",
			Help: "Valid server-pushed messages appended to the session",
		}),
		MessagesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_rejected_total",
			Help: "Malformed inbound messages discarded by validation",
		}),
		APICalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_api_calls_total",
			Help: "Request/response API calls by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
	}

	registry.MustRegister(
		m.ConnectionUp,
		m.Reconnects,
		m.TransportErrors,
		m.ChannelEvents,
		m.MessagesSent,
		m.MessagesReceived,
		m.MessagesRejected,
		m.APICalls,
	)

	return m
}

// Registry returns the underlying registry for exposition.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
