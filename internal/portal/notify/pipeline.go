// Package notify sends the status-change email after a committed renewal
// transition. Delivery runs on its own worker and never reports back to the
// mutation that triggered it.
package notify

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"passport-portal/internal/core/domain"
)

// StatusChanged is published once a transition has been committed and the
// affected cache entries have been invalidated.
type StatusChanged struct {
	Renewal   domain.RenewalRequest
	Previous  domain.RenewalStatus
	ChangedAt time.Time
}

// Transport delivers the email. No response contract is relied upon.
type Transport interface {
	SendStatusEmail(ctx context.Context, renewal *domain.RenewalRequest, recipientEmail string) error
}

// Stats counts worker outcomes.
type Stats struct {
	Delivered int64
	Failed    int64
	Skipped   int64
	Dropped   int64
}

// Pipeline is a buffered post-commit event queue with one delivery worker.
type Pipeline struct {
	transport Transport
	logger    *slog.Logger
	timeout   time.Duration

	mu     sync.RWMutex
	inbox  chan StatusChanged
	closed bool
	wg     sync.WaitGroup

	delivered atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
	dropped   atomic.Int64
}

type Option func(*Pipeline)

// WithBuffer sets how many events may wait for the worker.
func WithBuffer(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.inbox = make(chan StatusChanged, n)
		}
	}
}

// WithTimeout bounds each delivery attempt.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func New(transport Transport, opts ...Option) *Pipeline {
	p := &Pipeline{
		transport: transport,
		logger:    slog.Default(),
		timeout:   10 * time.Second,
		inbox:     make(chan StatusChanged, 64),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start runs the worker in the background until ctx ends or Close is called.
func (p *Pipeline) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = p.Run(ctx)
	}()
}

// Run consumes events until the inbox is closed or ctx is done.
func (p *Pipeline) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-p.inbox:
			if !ok {
				return nil
			}
			p.handle(ctx, ev)
		}
	}
}

// Publish enqueues ev without blocking. It returns false when the event was
// dropped because the pipeline is closed or full.
func (p *Pipeline) Publish(ev StatusChanged) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.dropped.Add(1)
		return false
	}
	if ev.ChangedAt.IsZero() {
		ev.ChangedAt = time.Now()
	}
	select {
	case p.inbox <- ev:
		return true
	default:
		p.dropped.Add(1)
		p.logger.Warn("notification dropped, queue full", "renewal_id", ev.Renewal.ID)
		return false
	}
}

// Close stops accepting events and waits for queued ones to be handled.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pipeline) Stats() Stats {
	return Stats{
		Delivered: p.delivered.Load(),
		Failed:    p.failed.Load(),
		Skipped:   p.skipped.Load(),
		Dropped:   p.dropped.Load(),
	}
}

func (p *Pipeline) handle(ctx context.Context, ev StatusChanged) {
	recipient, ok := Recipient(&ev.Renewal)
	if !ok {
		p.skipped.Add(1)
		p.logger.Info("notification skipped, no recipient", "renewal_id", ev.Renewal.ID)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.transport.SendStatusEmail(sendCtx, &ev.Renewal, recipient); err != nil {
		p.failed.Add(1)
		p.logger.Warn("status email failed",
			"renewal_id", ev.Renewal.ID,
			"status", ev.Renewal.Status,
			"error", err,
		)
		return
	}
	p.delivered.Add(1)
	p.logger.Info("status email sent", "renewal_id", ev.Renewal.ID, "status", ev.Renewal.Status)
}

// Recipient resolves the applicant's email address from the record.
func Recipient(r *domain.RenewalRequest) (string, bool) {
	raw := strings.TrimSpace(r.ApplicantEmail)
	if raw == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", false
	}
	return addr.Address, true
}
