package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shareit"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"endpoint", "code"},
	)

	grpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "gRPC requests by method and status code.",
		},
		[]string{"method", "code"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Bookings entering a status.",
		},
		[]string{"status"},
	)

	commentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_created_total",
			Help:      "Accepted item comments.",
		},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by a rate limiter.",
		},
		[]string{"scope"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Webhook notification attempts by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, grpcRequests, bookingTransitions, commentsCreated, rateLimited, notifications)
	})
}

// IncHTTP counts a served HTTP request.
func IncHTTP(endpoint string, code int) {
	httpRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

// IncGRPC counts a served gRPC call.
func IncGRPC(method, code string) {
	grpcRequests.WithLabelValues(method, code).Inc()
}

// IncBookingTransition counts a booking entering status.
func IncBookingTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

func IncCommentCreated() {
	commentsCreated.Inc()
}

// IncRateLimited counts a rejected request; scope is "api_key" or "user".
func IncRateLimited(scope string) {
	rateLimited.WithLabelValues(scope).Inc()
}

// IncNotification counts a delivery attempt; result is "sent", "retry" or "dead".
func IncNotification(result string) {
	notifications.WithLabelValues(result).Inc()
}
