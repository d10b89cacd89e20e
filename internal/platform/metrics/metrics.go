package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup outcomes.
const (
	LookupFound    = "found"
	LookupNotFound = "not_found"
	LookupError    = "error"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RegistrationsCreated  prometheus.Counter
	RegistrationsRejected *prometheus.CounterVec
	Lookups               *prometheus.CounterVec
	IDCollisions          prometheus.Counter
	RequestDuration       *prometheus.HistogramVec
}

// New creates and registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegistrationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "registrations_created_total",
			Help: "Total number of registrations accepted and stored",
		}),
		RegistrationsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrations_rejected_total",
			Help: "Submissions rejected by validation, by field and code",
		}, []string{"field", "code"}),
		Lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registration_lookups_total",
			Help: "Registration lookups by outcome",
		}, []string{"outcome"}),
		IDCollisions: f.NewCounter(prometheus.CounterOpts{
			Name: "registration_id_collisions_total",
			Help: "Generated registration ids that were already taken",
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// IncrementRegistrationsCreated increments the created counter by 1.
func (m *Metrics) IncrementRegistrationsCreated() {
	if m == nil {
		return
	}
	m.RegistrationsCreated.Inc()
}

// IncrementRejected records one rejected submission. field is "" for
// body-level rejections.
func (m *Metrics) IncrementRejected(field, code string) {
	if m == nil {
		return
	}
	if field == "" {
		field = "body"
	}
	m.RegistrationsRejected.WithLabelValues(field, code).Inc()
}

// IncrementLookup records one lookup outcome.
func (m *Metrics) IncrementLookup(outcome string) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(outcome).Inc()
}

// IncrementIDCollisions records one discarded identifier draw.
func (m *Metrics) IncrementIDCollisions() {
	if m == nil {
		return
	}
	m.IDCollisions.Inc()
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(seconds)
}
