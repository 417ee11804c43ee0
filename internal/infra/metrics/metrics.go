package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the studio's Prometheus collectors. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	BookingsCreated prometheus.Counter
	WebhookEvents   *prometheus.CounterVec
	GalleryAccess   *prometheus.CounterVec
	PhotosUploaded  prometheus.Counter
	OrdersCreated   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "studio",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		BookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "bookings_created_total",
			Help:      "Photo sessions booked.",
		}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "webhook_events_total",
			Help:      "Payment provider webhook events by type and outcome.",
		}, []string{"type", "outcome"}),
		GalleryAccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "gallery_access_total",
			Help:      "Gallery unlock attempts by result.",
		}, []string{"result"}),
		PhotosUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "photos_uploaded_total",
			Help:      "Photos confirmed as uploaded.",
		}),
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "orders_created_total",
			Help:      "Print shop orders placed.",
		}),
	}
	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.BookingsCreated,
		m.WebhookEvents,
		m.GalleryAccess,
		m.PhotosUploaded,
		m.OrdersCreated,
	)
	return m
}

func (m *Metrics) ObserveRequest(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, status).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(seconds)
}

func (m *Metrics) BookingCreated() {
	if m == nil {
		return
	}
	m.BookingsCreated.Inc()
}

func (m *Metrics) WebhookEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) GalleryAccessResult(result string) {
	if m == nil {
		return
	}
	m.GalleryAccess.WithLabelValues(result).Inc()
}

func (m *Metrics) PhotoUploaded() {
	if m == nil {
		return
	}
	m.PhotosUploaded.Inc()
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.OrdersCreated.Inc()
}
