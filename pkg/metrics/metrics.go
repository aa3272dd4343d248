package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once     sync.Once
	registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trainer_bookings",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trainer_bookings",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trainer_bookings",
			Name:      "booking_created_total",
			Help:      "Bookings created, by whether the creator was authenticated.",
		},
		[]string{"owner"},
	)

	notificationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "trainer_bookings",
			Name:      "notification_failed_total",
			Help:      "Bookings saved whose notification emails failed.",
		},
	)

	storeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trainer_bookings",
			Name:      "store_errors_total",
			Help:      "Failed storage statements by backend and kind.",
		},
		[]string{"backend", "kind"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			httpRequests, httpDuration, bookingsCreated, notificationFailures, storeErrors,
		)
	})
}

// Handler serves the registered metrics.
func Handler() http.Handler {
	Register()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func ObserveRequest(method, route, status string, seconds float64) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func IncBookingCreated(authenticated bool) {
	owner := "anonymous"
	if authenticated {
		owner = "client"
	}
	bookingsCreated.WithLabelValues(owner).Inc()
}

func IncNotificationFailed() {
	notificationFailures.Inc()
}

func IncStoreError(backend, kind string) {
	storeErrors.WithLabelValues(backend, kind).Inc()
}
