package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks renewal review activity and status emails.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Transitions     *prometheus.CounterVec
	Submissions     prometheus.Counter
	DocumentUploads *prometheus.CounterVec
	Emails          *prometheus.CounterVec
	PendingBacklog  prometheus.Gauge
	PurgedTokens    prometheus.Counter
}

// New registers every metric with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_renewal_transitions_total",
			Help: "Committed renewal status transitions",
		}, []string{"from", "to"}),
		Submissions: f.NewCounter(prometheus.CounterOpts{
			Name: "passport_renewal_submissions_total",
			Help: "Renewal requests submitted by applicants",
		}),
		DocumentUploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_renewal_document_uploads_total",
			Help: "Documents stored per document type",
		}, []string{"document_type"}),
		Emails: f.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_status_emails_total",
			Help: "Status emails by outcome",
		}, []string{"result"}),
		PendingBacklog: f.NewGauge(prometheus.GaugeOpts{
			Name: "passport_renewals_pending",
			Help: "Renewals waiting for review at the last backlog check",
		}),
		PurgedTokens: f.NewCounter(prometheus.CounterOpts{
			Name: "passport_refresh_tokens_purged_total",
			Help: "Expired or revoked refresh tokens deleted by the cleanup job",
		}),
	}
}

func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordSubmission() {
	if m == nil {
		return
	}
	m.Submissions.Inc()
}

func (m *Metrics) RecordUpload(docType string) {
	if m == nil {
		return
	}
	m.DocumentUploads.WithLabelValues(docType).Inc()
}

// RecordEmail counts an email outcome: "sent", "failed" or "logged".
func (m *Metrics) RecordEmail(result string) {
	if m == nil {
		return
	}
	m.Emails.WithLabelValues(result).Inc()
}

func (m *Metrics) SetPendingBacklog(n int64) {
	if m == nil {
		return
	}
	m.PendingBacklog.Set(float64(n))
}

func (m *Metrics) AddPurgedTokens(n int64) {
	if m == nil {
		return
	}
	m.PurgedTokens.Add(float64(n))
}
