package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ContactMetrics holds Prometheus metrics for the contact pipeline.
// All metrics carry a variant label ("base" or "company").
// A nil *ContactMetrics is valid and records nothing.
type ContactMetrics struct {
	Submissions        *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	EmailSent          *prometheus.CounterVec
	EmailFailed        *prometheus.CounterVec
	SendDuration       *prometheus.HistogramVec
}

// NewContactMetrics creates the contact metrics and registers them with reg.
// Passing prometheus.DefaultRegisterer exposes them on /metrics; tests pass
// a fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewContactMetrics(namespace string, reg prometheus.Registerer) *ContactMetrics {
	if namespace == "" {
		namespace = "armstrong"
	}

	factory := promauto.With(reg)
	subsystem := "contact"

	return &ContactMetrics{
		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "submissions_total",
				Help:      "Total contact form submissions received",
			},
			[]string{"variant"},
		),
		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "validation_failures_total",
				Help:      "Total rejected fields in contact submissions",
			},
			[]string{"variant", "field"},
		),
		EmailSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "email_sent_total",
				Help:      "Total contact emails accepted by the transport",
			},
			[]string{"variant", "transport"},
		),
		EmailFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "email_failed_total",
				Help:      "Total contact emails the transport rejected",
			},
			[]string{"variant", "transport", "silenced"},
		),
		SendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "send_duration_seconds",
				Help:      "Time spent handing a contact email to the transport",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"variant", "transport"},
		),
	}
}

// RecordSubmission counts an incoming submission.
func (m *ContactMetrics) RecordSubmission(variant string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(variant).Inc()
}

// RecordValidationFailure counts each rejected field.
func (m *ContactMetrics) RecordValidationFailure(variant string, fields []string) {
	if m == nil {
		return
	}
	for _, field := range fields {
		m.ValidationFailures.WithLabelValues(variant, field).Inc()
	}
}

// RecordSend records the outcome and latency of a delivery attempt.
func (m *ContactMetrics) RecordSend(variant, transport string, seconds float64, err error, silenced bool) {
	if m == nil {
		return
	}
	m.SendDuration.WithLabelValues(variant, transport).Observe(seconds)
	if err != nil {
		s := "false"
		if silenced {
			s = "true"
		}
		m.EmailFailed.WithLabelValues(variant, transport, s).Inc()
		return
	}
	m.EmailSent.WithLabelValues(variant, transport).Inc()
}
