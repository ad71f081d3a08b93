package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "haven_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// NotificationsFannedOut counts in-app notifications created, by verb.
	NotificationsFannedOut = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "haven_notifications_fanned_out_total",
		Help: "Total number of notifications created by the fan-out, by verb",
	}, []string{"verb"})

	// EmailsSent counts outbound emails by kind and outcome.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "haven_emails_sent_total",
		Help: "Total number of outbound emails by kind and outcome",
	}, []string{"kind", "outcome"})

	// ActiveWebSockets is the gauge of live notification socket connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "haven_websocket_connections",
		Help: "Number of active notification WebSocket connections",
	})
)

// InitMetrics creates the Prometheus HTTP middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}
