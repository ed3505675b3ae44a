package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"passport-portal/internal/config"
	"passport-portal/internal/core/domain"
	"passport-portal/internal/pkg/metrics"
)

// Notification errors
var (
	ErrInvalidRecipient = errors.New("invalid recipient email")
)

// Mailer delivers one plain-text email
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// smtpMailer sends through the configured SMTP relay
type smtpMailer struct {
	cfg config.SMTPConfig
}

// NewSMTPMailer creates a mailer for cfg, or a log-only mailer when SMTP is not configured
func NewSMTPMailer(cfg config.SMTPConfig) Mailer {
	if !cfg.Enabled() {
		log.Println("⚠️ SMTP not configured, status emails will be logged only")
		return logMailer{}
	}
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	from, err := mail.ParseAddress(m.cfg.From)
	if err != nil {
		return fmt.Errorf("invalid SMTP_FROM: %w", err)
	}

	msg := buildMessage(m.cfg.From, to, subject, body)
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, from.Address, []string{to}, msg)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// logMailer prints emails instead of sending them
type logMailer struct{}

func (logMailer) Send(ctx context.Context, to, subject, body string) error {
	log.Printf("📧 [mail disabled] to=%s subject=%q", to, subject)
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// NotificationService sends renewal status emails
type NotificationService struct {
	mailer    Mailer
	portalURL string
	metrics   *metrics.Metrics
}

// NewNotificationService creates a new notification service
func NewNotificationService(mailer Mailer, portalURL string, m *metrics.Metrics) *NotificationService {
	return &NotificationService{
		mailer:    mailer,
		portalURL: strings.TrimRight(portalURL, "/"),
		metrics:   m,
	}
}

// SendRenewalStatus emails the applicant about the current status of r
func (s *NotificationService) SendRenewalStatus(ctx context.Context, r *domain.RenewalRequest, recipient string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(recipient))
	if err != nil {
		return ErrInvalidRecipient
	}
	if !r.Status.Valid() {
		return domain.ErrInvalidStatus
	}

	subject, body := ComposeStatusEmail(r, s.portalURL)
	if err := s.mailer.Send(ctx, addr.Address, subject, body); err != nil {
		s.metrics.RecordEmail("failed")
		log.Printf("❌ Status email failed: renewal=%s to=%s: %v", r.ID, addr.Address, err)
		return err
	}

	s.metrics.RecordEmail("sent")
	log.Printf("✅ Status email sent: renewal=%s status=%s", r.ID, r.Status)
	return nil
}

// ComposeStatusEmail renders the subject and body for the renewal's status
func ComposeStatusEmail(r *domain.RenewalRequest, portalURL string) (string, string) {
	name := strings.TrimSpace(r.FullName)
	if name == "" {
		name = "Applicant"
	}
	ref := r.ID
	link := portalURL + "/applicant/renewals"

	var subject, lead string
	switch r.Status {
	case domain.StatusVerified:
		subject = "Your passport renewal has been verified"
		lead = "Your passport renewal request has been verified. " +
			"You will be contacted with the collection details once your new passport is ready."
	case domain.StatusRejected:
		subject = "Your passport renewal needs attention"
		lead = "Your passport renewal request could not be approved."
		if reason := strings.TrimSpace(r.RejectionReason); reason != "" {
			lead += "\n\nReason: " + reason
		}
		lead += "\n\nPlease review the reason above and submit a new request with the corrected details."
	default:
		subject = "Your passport renewal is under review"
		lead = "Your passport renewal request has been received and is waiting for review."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	b.WriteString(lead)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Reference: %s\n", ref)
	if r.CurrentPassportNumber != "" {
		fmt.Fprintf(&b, "Current passport: %s\n", r.CurrentPassportNumber)
	}
	if notes := strings.TrimSpace(r.AdminNotes); notes != "" {
		fmt.Fprintf(&b, "Notes from the reviewing officer: %s\n", notes)
	}
	fmt.Fprintf(&b, "\nTrack your request at %s\n", link)
	b.WriteString("\nDepartment of Immigration and Emigration\n")
	return subject, b.String()
}
