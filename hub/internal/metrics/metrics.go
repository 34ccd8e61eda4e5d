package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Live channel metrics
	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_hub_ws_connections_total",
			Help: "Total number of WebSocket connections accepted",
		},
	)

	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_hub_ws_connections_active",
			Help: "Number of currently open WebSocket connections",
		},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_hub_ws_messages_sent_total",
			Help: "Total number of envelopes queued to subscribers",
		},
	)

	SlowSubscribersDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_hub_ws_slow_subscribers_dropped_total",
			Help: "Subscribers disconnected because their send buffer filled",
		},
	)

	// Status ingestion metrics
	StatusUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_hub_status_updates_total",
			Help: "Total number of status transitions processed",
		},
		[]string{"source", "result"},
	)

	// Auth metrics
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_hub_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)
)
