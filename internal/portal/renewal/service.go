// Package renewal coordinates the admin review of renewal requests: local
// validation, the remote mutation, cache invalidation and the post-commit
// notification, in that order.
package renewal

import (
	"context"
	"log/slog"
	"time"

	"passport-portal/internal/core/domain"
	"passport-portal/internal/portal/notify"
	"passport-portal/internal/portal/querycache"
)

// Remote is the renewal service boundary.
type Remote interface {
	ListRenewals(ctx context.Context, f domain.RenewalFilter) (*domain.RenewalPage, error)
	MyRenewals(ctx context.Context) (*domain.RenewalPage, error)
	GetRenewal(ctx context.Context, id string) (*domain.RenewalRequest, error)
	UpdateRenewal(ctx context.Context, id string, u domain.RenewalUpdate) (*domain.RenewalRequest, error)
	CreateRenewal(ctx context.Context, s domain.RenewalSubmission) (*domain.RenewalRequest, error)
}

// Invalidator marks cached views stale.
type Invalidator interface {
	InvalidateList() bool
	InvalidateDetail(id string) bool
}

// Publisher hands committed transitions to the notification pipeline.
type Publisher interface {
	Publish(ev notify.StatusChanged) bool
}

// IdentitySource exposes the signed-in identity.
type IdentitySource interface {
	Identity() (domain.Identity, bool)
}

type Service struct {
	remote      Remote
	cache       *querycache.Cache
	invalidator Invalidator
	publisher   Publisher
	identity    IdentitySource
	logger      *slog.Logger
	now         func() time.Time
}

type Option func(*Service)

// WithIdentity enables the local role check on admin actions.
func WithIdentity(src IdentitySource) Option {
	return func(s *Service) { s.identity = src }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(remote Remote, cache *querycache.Cache, publisher Publisher, opts ...Option) *Service {
	s := &Service{
		remote:      remote,
		cache:       cache,
		invalidator: cache,
		publisher:   publisher,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateAsAdmin moves a renewal to a new review status.
//
// A local validation failure returns a *domain.ValidationError and nothing
// else happens. A remote failure is returned as-is and leaves every cache
// entry alone. On success the list views and the detail view of id are
// invalidated before the status email is queued; the email outcome never
// affects the result.
func (s *Service) UpdateAsAdmin(ctx context.Context, id string, u domain.RenewalUpdate) (*domain.RenewalRequest, error) {
	if id == "" {
		return nil, &domain.ValidationError{Field: "id", Reason: domain.ErrInvalidInput}
	}
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}

	var previous domain.RenewalStatus
	if current, ok := querycache.Peek[*domain.RenewalRequest](s.cache, querycache.DetailKey(id)); ok && current != nil {
		previous = current.Status
		if err := domain.ValidateTransition(current.Status, u); err != nil {
			return nil, err
		}
	} else if err := domain.ValidateUpdate(u); err != nil {
		return nil, err
	}

	updated, err := s.remote.UpdateRenewal(ctx, id, u)
	if err != nil {
		s.logger.Warn("renewal update failed", "renewal_id", id, "status", u.Status, "error", err)
		return nil, err
	}
	if updated == nil {
		updated = &domain.RenewalRequest{ID: id, Status: u.Status, RejectionReason: u.RejectionReason, AdminNotes: u.AdminNotes}
	}

	s.invalidator.InvalidateList()
	s.invalidator.InvalidateDetail(id)

	if previous != "" && domain.IsOverride(previous, updated.Status) {
		s.logger.Info("renewal status overridden", "renewal_id", id, "from", previous, "to", updated.Status)
	}

	s.publisher.Publish(notify.StatusChanged{
		Renewal:   *updated,
		Previous:  previous,
		ChangedAt: s.now(),
	})
	return updated, nil
}

// Get returns the detail view of one renewal. The result is the caller's
// own copy.
func (s *Service) Get(ctx context.Context, id string) (*domain.RenewalRequest, error) {
	r, err := querycache.Read(ctx, s.cache, querycache.DetailKey(id), func(ctx context.Context) (*domain.RenewalRequest, error) {
		r, err := s.remote.GetRenewal(ctx, id)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, domain.ErrRenewalNotFound
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

// List returns one filtered page of renewals as the caller's own copy.
func (s *Service) List(ctx context.Context, f domain.RenewalFilter) (*domain.RenewalPage, error) {
	page, err := querycache.Read(ctx, s.cache, querycache.ListKey(f), func(ctx context.Context) (*domain.RenewalPage, error) {
		return s.remote.ListRenewals(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	return page.Clone(), nil
}

// Mine returns the signed-in applicant's renewals.
func (s *Service) Mine(ctx context.Context) (*domain.RenewalPage, error) {
	subject := ""
	if s.identity != nil {
		if ident, ok := s.identity.Identity(); ok {
			subject = ident.SubjectID
		}
	}
	key := querycache.Key{Domain: querycache.ListDomain, ID: "mine:" + subject}
	page, err := querycache.Read(ctx, s.cache, key, s.remote.MyRenewals)
	if err != nil {
		return nil, err
	}
	return page.Clone(), nil
}

// Submit creates a new renewal request. It starts out PENDING.
func (s *Service) Submit(ctx context.Context, sub domain.RenewalSubmission) (*domain.RenewalRequest, error) {
	if err := domain.ValidateSubmission(sub); err != nil {
		return nil, err
	}
	created, err := s.remote.CreateRenewal(ctx, sub)
	if err != nil {
		s.logger.Warn("renewal submission failed", "error", err)
		return nil, err
	}
	s.invalidator.InvalidateList()
	return created, nil
}

func (s *Service) requireAdmin() error {
	if s.identity == nil {
		return nil
	}
	ident, ok := s.identity.Identity()
	if !ok {
		return domain.ErrUnauthorized
	}
	if ident.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	return nil
}
