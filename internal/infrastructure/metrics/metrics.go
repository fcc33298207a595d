package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unimarket_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unimarket_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Chat metrics
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "unimarket_ws_connections_active",
			Help: "Currently open WebSocket connections",
		},
	)

	MessagesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unimarket_chat_messages_persisted_total",
			Help: "Messages durably appended to the store",
		},
	)

	BroadcastsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unimarket_chat_broadcasts_delivered_total",
			Help: "Message copies delivered to room subscribers",
		},
	)

	FramesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unimarket_ws_frames_rejected_total",
			Help: "Inbound frames dropped before persistence",
		},
		[]string{"reason"}, // "invalid_json", "validation", "storage", "unknown_type"
	)

	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unimarket_chat_rooms_created_total",
			Help: "Chat rooms created",
		},
	)
)
