// Package metrics registers the Prometheus instrumentation for the
// verification core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the serving process. A nil
// *Metrics is valid and turns every recording call into a no-op, which keeps
// unit tests free of registry collisions.
type Metrics struct {
	CheckinsIssued      prometheus.Counter
	SubmissionsAccepted prometheus.Counter
	SubmissionsRejected *prometheus.CounterVec
	NoncesSwept         prometheus.Counter
	RequestDurationSecs *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registry. Call once
// per process.
func New() *Metrics {
	return &Metrics{
		CheckinsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "presence_checkins_issued_total",
			Help: "Total number of check-in nonces issued",
		}),
		SubmissionsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "presence_submissions_accepted_total",
			Help: "Total number of submissions accepted",
		}),
		SubmissionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "presence_submissions_rejected_total",
			Help: "Total number of submissions rejected, by reason code",
		}, []string{"reason"}),
		NoncesSwept: promauto.NewCounter(prometheus.CounterOpts{
			Name: "presence_nonces_swept_total",
			Help: "Total number of expired nonces removed by the sweeper",
		}),
		RequestDurationSecs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "presence_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// RegisterActiveNonces exposes a gauge backed by the given count function.
// Only store backends with a cheap local count register it.
func RegisterActiveNonces(count func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "presence_nonces_active",
		Help: "Number of nonce records currently retained by the store",
	}, func() float64 { return float64(count()) })
}

func (m *Metrics) IncrementCheckinsIssued() {
	if m == nil {
		return
	}
	m.CheckinsIssued.Inc()
}

func (m *Metrics) IncrementSubmissionsAccepted() {
	if m == nil {
		return
	}
	m.SubmissionsAccepted.Inc()
}

func (m *Metrics) IncrementSubmissionsRejected(reason string) {
	if m == nil {
		return
	}
	m.SubmissionsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) AddNoncesSwept(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.NoncesSwept.Add(float64(count))
}

func (m *Metrics) ObserveRequestDuration(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDurationSecs.WithLabelValues(route, status).Observe(seconds)
}
