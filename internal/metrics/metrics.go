// Package metrics declares the Prometheus collectors exposed at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "food_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "food_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "food_orders_placed_total",
		Help: "Orders created and handed to the payment gateway.",
	})

	PaymentsConfirmedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "food_payments_confirmed_total",
			Help: "Payment confirmations by outcome (paid, failed).",
		},
		[]string{"outcome"},
	)

	PaymentGatewayErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "food_payment_gateway_errors_total",
			Help: "Payment gateway failures by reason (error, open_circuit).",
		},
		[]string{"reason"},
	)

	OrdersExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "food_orders_expired_total",
		Help: "Orders failed by the pending-payment sweeper.",
	})
)

func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
var CircuitBreakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "food_circuit_breaker_state",
		Help: "Circuit breaker state by name (0 closed, 1 half-open, 2 open).",
	},
	[]string{"name"},
)
