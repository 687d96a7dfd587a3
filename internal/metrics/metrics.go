// Package metrics содержит prometheus метрики сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chato_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chato_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// MessageOperations результат операций жизненного цикла сообщения
	MessageOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chato_message_operations_total",
			Help: "Message lifecycle operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	MessagesPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chato_messages_purged_total",
		Help: "Messages physically removed after every participant deleted them",
	})

	AttachmentsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chato_attachments_swept_total",
		Help: "Detached attachments removed by the sweeper",
	})

	WebsocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chato_websocket_connections",
		Help: "Currently open websocket connections",
	})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chato_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)
