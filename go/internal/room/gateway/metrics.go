package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway's Prometheus collectors.
type Metrics struct {
	Connections       prometheus.Gauge
	Rooms             prometheus.Gauge
	Messages          *prometheus.CounterVec
	MalformedMessages prometheus.Counter
	Broadcasts        *prometheus.CounterVec
	DroppedDeliveries prometheus.Counter
	HandshakeFailures *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "focusroom",
			Name:      "connections",
			Help:      "Live WebSocket connections.",
		}),
		Rooms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "focusroom",
			Name:      "rooms",
			Help:      "Rooms in the registry.",
		}),
		Messages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "focusroom",
			Name:      "client_messages_total",
			Help:      "Decoded client messages by type.",
		}, []string{"type"}),
		MalformedMessages: f.NewCounter(prometheus.CounterOpts{
			Namespace: "focusroom",
			Name:      "malformed_messages_total",
			Help:      "Client frames that could not be decoded.",
		}),
		Broadcasts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "focusroom",
			Name:      "broadcasts_total",
			Help:      "Room broadcasts by kind.",
		}, []string{"kind"}),
		DroppedDeliveries: f.NewCounter(prometheus.CounterOpts{
			Namespace: "focusroom",
			Name:      "dropped_deliveries_total",
			Help:      "Deliveries dropped because a connection's send buffer was full.",
		}),
		HandshakeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "focusroom",
			Name:      "handshake_failures_total",
			Help:      "Rejected WebSocket handshakes by reason.",
		}, []string{"kind"}),
	}
}

// NewNopMetrics returns collectors registered nowhere.
func NewNopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
