package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the realtime collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Connections          prometheus.Gauge
	OnlineUsers          prometheus.Gauge
	Broadcasts           *prometheus.CounterVec
	DroppedEvents        prometheus.Counter
	NotificationsCreated *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskflow_ws_connections",
			Help: "Active websocket connections",
		}),
		OnlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskflow_online_users",
			Help: "Registered identities currently online",
		}),
		Broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskflow_broadcasts_total",
			Help: "Live events emitted, by event name",
		}, []string{"event"}),
		DroppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskflow_dropped_events_total",
			Help: "Live events dropped because a connection queue was full or closed",
		}),
		NotificationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskflow_notifications_created_total",
			Help: "Durable notifications persisted, by type",
		}, []string{"type"}),
	}
	if reg != nil {
		reg.MustRegister(m.Connections, m.OnlineUsers, m.Broadcasts, m.DroppedEvents, m.NotificationsCreated)
	}
	return m
}

// Handler returns an http.Handler for Prometheus scraping.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) SetConnections(n int) {
	if m != nil {
		m.Connections.Set(float64(n))
	}
}

func (m *Metrics) SetOnlineUsers(n int) {
	if m != nil {
		m.OnlineUsers.Set(float64(n))
	}
}

func (m *Metrics) Broadcast(event string) {
	if m != nil {
		m.Broadcasts.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) Dropped(n int) {
	if m != nil && n > 0 {
		m.DroppedEvents.Add(float64(n))
	}
}

func (m *Metrics) NotificationCreated(typ string) {
	if m != nil {
		m.NotificationsCreated.WithLabelValues(typ).Inc()
	}
}
