package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordTransition("PENDING", "VERIFIED")
	m.RecordTransition("PENDING", "VERIFIED")
	m.RecordEmail("failed")
	m.SetPendingBacklog(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("PENDING", "VERIFIED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Emails.WithLabelValues("failed")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.PendingBacklog))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordTransition("PENDING", "REJECTED")
		m.RecordSubmission()
		m.RecordUpload("nic-front")
		m.RecordEmail("sent")
		m.SetPendingBacklog(1)
		m.AddPurgedTokens(3)
	})
}
