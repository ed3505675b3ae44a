package services

import (
	"context"
	"errors"
	"testing"

	"passport-portal/internal/core/domain"
	"passport-portal/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to, subject, body})
	return m.err
}

func TestNotification_SendsRejectionWithReason(t *testing.T) {
	mailer := &fakeMailer{}
	m := metrics.New(prometheus.NewRegistry())
	svc := NewNotificationService(mailer, "http://portal.test/", m)

	err := svc.SendRenewalStatus(context.Background(), &domain.RenewalRequest{
		ID:              "r-1",
		FullName:        "Nimal Perera",
		Status:          domain.StatusRejected,
		RejectionReason: "NIC photo is blurred",
	}, "Nimal <nimal@example.lk>")
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	got := mailer.sent[0]
	assert.Equal(t, "nimal@example.lk", got.to)
	assert.Contains(t, got.subject, "needs attention")
	assert.Contains(t, got.body, "Reason: NIC photo is blurred")
	assert.Contains(t, got.body, "http://portal.test/applicant/renewals")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Emails.WithLabelValues("sent")))
}

func TestNotification_Failures(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("relay refused")}
	svc := NewNotificationService(mailer, "http://portal.test", nil)
	ctx := context.Background()

	err := svc.SendRenewalStatus(ctx, &domain.RenewalRequest{ID: "r-1", Status: domain.StatusVerified}, "nope")
	assert.ErrorIs(t, err, ErrInvalidRecipient)
	assert.Empty(t, mailer.sent)

	err = svc.SendRenewalStatus(ctx, &domain.RenewalRequest{ID: "r-1", Status: domain.StatusVerified}, "a@example.lk")
	assert.EqualError(t, err, "relay refused")
}

func TestComposeStatusEmail(t *testing.T) {
	subject, body := ComposeStatusEmail(&domain.RenewalRequest{
		ID:                    "r-9",
		Status:                domain.StatusVerified,
		CurrentPassportNumber: "N1234567",
		AdminNotes:            "collect from Colombo office",
	}, "http://portal.test")

	assert.Equal(t, "Your passport renewal has been verified", subject)
	assert.Contains(t, body, "Dear Applicant,")
	assert.Contains(t, body, "Reference: r-9")
	assert.Contains(t, body, "Current passport: N1234567")
	assert.Contains(t, body, "collect from Colombo office")
}

func TestBuildMessage_UsesCRLF(t *testing.T) {
	msg := string(buildMessage("from@x.lk", "to@x.lk", "Hi", "line1\nline2"))
	assert.Contains(t, msg, "Subject: Hi\r\n")
	assert.Contains(t, msg, "line1\r\nline2")
}
