// Package metrics provides Prometheus metrics for the vimeet server.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	instance *Metrics
)

// Metrics holds all Prometheus collectors
type Metrics struct {
	ConnectionsActive prometheus.Gauge
	RoomsTotal        prometheus.Gauge
	MessagesInTotal   *prometheus.CounterVec
	MessagesOutTotal  prometheus.Counter
	MessagesDropped   prometheus.Counter
	HeartbeatTimeouts prometheus.Counter
}

// Get returns the singleton Metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			ConnectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "vimeet_connections_active",
				Help: "Number of currently open WebSocket sessions",
			}),
			RoomsTotal: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "vimeet_rooms_total",
				Help: "Number of rooms created since startup (rooms are never destroyed)",
			}),
			MessagesInTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "vimeet_messages_in_total",
				Help: "Inbound client commands by type",
			}, []string{"type"}),
			MessagesOutTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "vimeet_messages_out_total",
				Help: "Outbound frames enqueued to session outboxes",
			}),
			MessagesDropped: promauto.NewCounter(prometheus.CounterOpts{
				Name: "vimeet_messages_dropped_total",
				Help: "Outbound frames dropped because a session outbox was full",
			}),
			HeartbeatTimeouts: promauto.NewCounter(prometheus.CounterOpts{
				Name: "vimeet_heartbeat_timeouts_total",
				Help: "Sessions terminated by heartbeat timeout",
			}),
		}
	})
	return instance
}
