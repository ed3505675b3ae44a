package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"passport-portal/internal/adapters/persistence/models"
	"passport-portal/internal/adapters/persistence/repositories"
	"passport-portal/internal/core/domain"
	"passport-portal/internal/pkg/metrics"
	"passport-portal/internal/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Viewer is the authenticated caller of a service method
type Viewer struct {
	UserID string
	Email  string
	Role   string
	IP     string
}

// IsAdmin reports whether the viewer may review renewals
func (v Viewer) IsAdmin() bool {
	return v.Role == string(domain.RoleAdmin)
}

// RenewalService handles renewal submission and review
type RenewalService struct {
	repo    repositories.RenewalRepository
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRenewalService creates a new renewal service
func NewRenewalService(repo repositories.RenewalRepository, m *metrics.Metrics) *RenewalService {
	return &RenewalService{
		repo:    repo,
		metrics: m,
		now:     time.Now,
	}
}

// Submit creates a PENDING renewal owned by the viewer
func (s *RenewalService) Submit(ctx context.Context, viewer Viewer, sub domain.RenewalSubmission) (*domain.RenewalRequest, error) {
	if err := domain.ValidateSubmission(sub); err != nil {
		return nil, err
	}

	renewal := &models.RenewalRequest{
		ID:                    uuid.New().String(),
		ApplicantID:           viewer.UserID,
		ApplicantEmail:        viewer.Email,
		FullName:              strings.TrimSpace(sub.FullName),
		NICNumber:             strings.ToUpper(strings.TrimSpace(sub.NICNumber)),
		DateOfBirth:           sub.DateOfBirth,
		Gender:                sub.Gender,
		Address:               sub.Address,
		PhoneNumber:           sub.PhoneNumber,
		CurrentPassportNumber: strings.ToUpper(strings.TrimSpace(sub.CurrentPassportNumber)),
		PassportIssueDate:     sub.PassportIssueDate,
		PassportExpiryDate:    sub.PassportExpiryDate,
		PassportType:          sub.PassportType,
		ServiceType:           sub.ServiceType,
		Status:                string(domain.StatusPending),
	}
	for docType, url := range sub.Documents {
		if strings.TrimSpace(url) == "" {
			continue
		}
		renewal.Documents = append(renewal.Documents, models.RenewalDocument{
			DocumentType: string(docType),
			URL:          url,
			UploadedBy:   viewer.UserID,
		})
	}

	history := &models.RenewalHistory{
		Action:      models.ActionCreate,
		ToStatus:    renewal.Status,
		Description: "renewal submitted",
		PerformedBy: viewer.UserID,
		IPAddress:   viewer.IP,
	}
	if err := s.repo.Create(ctx, renewal, history); err != nil {
		return nil, err
	}

	s.metrics.RecordSubmission()
	log.Printf("✅ Renewal submitted: %s by %s", renewal.ID, viewer.Email)
	return renewal.ToDomain(), nil
}

// Get returns one renewal. Applicants only see their own.
func (s *RenewalService) Get(ctx context.Context, viewer Viewer, id string) (*domain.RenewalRequest, error) {
	renewal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.IsAdmin() && renewal.ApplicantID != viewer.UserID {
		return nil, domain.ErrForbidden
	}
	return renewal.ToDomain(), nil
}

// List returns renewals matching q for the admin queue
func (s *RenewalService) List(ctx context.Context, q repositories.RenewalQuery, params *pagination.Params) (*pagination.Page[*domain.RenewalRequest], error) {
	if q.Status != "" {
		q.Status = strings.ToUpper(q.Status)
		if !domain.RenewalStatus(q.Status).Valid() {
			return nil, &domain.ValidationError{Field: "status", Reason: domain.ErrInvalidStatus}
		}
	}

	rows, total, err := s.repo.List(ctx, q, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(toDomainList(rows), params, total), nil
}

// ListMine returns the viewer's own renewals
func (s *RenewalService) ListMine(ctx context.Context, viewer Viewer, params *pagination.Params) (*pagination.Page[*domain.RenewalRequest], error) {
	rows, total, err := s.repo.List(ctx, repositories.RenewalQuery{ApplicantID: viewer.UserID}, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(toDomainList(rows), params, total), nil
}

// UpdateStatus applies an admin review decision.
// The edge is checked against the stored status and written conditionally,
// so two reviewers racing on the same renewal cannot both win.
func (s *RenewalService) UpdateStatus(ctx context.Context, viewer Viewer, id string, u domain.RenewalUpdate) (*domain.RenewalRequest, error) {
	if !viewer.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	renewal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	from := domain.RenewalStatus(renewal.Status)
	if err := domain.ValidateTransition(from, u); err != nil {
		return nil, err
	}

	now := s.now()
	renewal.Status = string(u.Status)
	if notes := strings.TrimSpace(u.AdminNotes); notes != "" {
		renewal.AdminNotes = notes
	}
	if u.Status == domain.StatusRejected {
		renewal.RejectionReason = strings.TrimSpace(u.RejectionReason)
	} else {
		renewal.RejectionReason = ""
	}
	renewal.VerifiedAt = &now
	renewal.VerifiedBy = viewer.UserID

	action := models.ActionStatusChange
	if domain.IsOverride(from, u.Status) {
		action = models.ActionOverride
	}
	history := &models.RenewalHistory{
		RenewalID:   renewal.ID,
		Action:      action,
		FromStatus:  string(from),
		ToStatus:    renewal.Status,
		Description: historyDescription(u),
		PerformedBy: viewer.UserID,
		IPAddress:   viewer.IP,
	}

	if err := s.repo.UpdateStatus(ctx, renewal, string(from), history); err != nil {
		if errors.Is(err, repositories.ErrStaleStatus) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}

	s.metrics.RecordTransition(string(from), renewal.Status)
	log.Printf("✅ Renewal %s: %s -> %s by %s", renewal.ID, from, renewal.Status, viewer.Email)
	return renewal.ToDomain(), nil
}

// History returns the audit trail of a renewal
func (s *RenewalService) History(ctx context.Context, viewer Viewer, id string) ([]*models.RenewalHistory, error) {
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

// PendingCount returns how many renewals wait for review
func (s *RenewalService) PendingCount(ctx context.Context) (int64, error) {
	return s.repo.CountByStatus(ctx, string(domain.StatusPending))
}

func (s *RenewalService) load(ctx context.Context, id string) (*models.RenewalRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrRenewalNotFound
	}
	renewal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRenewalNotFound
		}
		return nil, err
	}
	return renewal, nil
}

func historyDescription(u domain.RenewalUpdate) string {
	desc := fmt.Sprintf("status set to %s", u.Status)
	if u.Status == domain.StatusRejected {
		desc += ": " + strings.TrimSpace(u.RejectionReason)
	}
	return desc
}

func toDomainList(rows []*models.RenewalRequest) []*domain.RenewalRequest {
	out := make([]*domain.RenewalRequest, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToDomain())
	}
	return out
}
