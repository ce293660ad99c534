package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// backendRequestsTotal — счётчик запросов к backend
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pbs_backend_requests_total",
			Help: "Общее количество запросов к REST backend",
		},
		[]string{"op", "status"},
	)

	// backendRequestDuration — гистограмма длительности запросов к backend
	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pbs_backend_request_duration_seconds",
			Help:    "Длительность запросов к REST backend в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// breakerState — состояние circuit breaker (0 closed, 1 half-open, 2 open)
	breakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pbs_backend_breaker_state",
			Help: "Состояние circuit breaker backend: 0 closed, 1 half-open, 2 open",
		},
	)
)

func observeRequest(op, status string, elapsed time.Duration) {
	backendRequestsTotal.WithLabelValues(op, status).Inc()
	backendRequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}
