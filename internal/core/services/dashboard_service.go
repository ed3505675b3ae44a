package services

import (
	"context"
	"fmt"
	"time"

	"passport-portal/internal/adapters/persistence/repositories"
	"passport-portal/internal/core/domain"
)

const recentRenewals = 10

// DashboardService handles dashboard operations
type DashboardService struct {
	repo repositories.RenewalRepository
	now  func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(repo repositories.RenewalRepository) *DashboardService {
	return &DashboardService{repo: repo, now: time.Now}
}

// ============================================================
// Admin Dashboard
// ============================================================

// AdminDashboardData represents the review overview
type AdminDashboardData struct {
	TotalRenewals    int64 `json:"total_renewals"`
	PendingRenewals  int64 `json:"pending_renewals"`
	VerifiedRenewals int64 `json:"verified_renewals"`
	RejectedRenewals int64 `json:"rejected_renewals"`

	// Monthly Statistics
	RenewalsThisMonth int64 `json:"renewals_this_month"`

	// Oldest first, so the queue head is on top
	OldestPending []RenewalSummary `json:"oldest_pending"`
	// Recent Activity
	RecentRenewals []RenewalSummary `json:"recent_renewals"`
}

// RenewalSummary represents one row of a dashboard list
type RenewalSummary struct {
	ID                    string               `json:"id"`
	FullName              string               `json:"full_name"`
	CurrentPassportNumber string               `json:"current_passport_number"`
	Status                domain.RenewalStatus `json:"status"`
	CreatedAt             time.Time            `json:"created_at"`
}

// GetAdminDashboard returns admin dashboard data
func (s *DashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboardData, error) {
	data := &AdminDashboardData{}

	counts := map[domain.RenewalStatus]*int64{
		domain.StatusPending:  &data.PendingRenewals,
		domain.StatusVerified: &data.VerifiedRenewals,
		domain.StatusRejected: &data.RejectedRenewals,
	}
	for status, dst := range counts {
		n, err := s.repo.CountByStatus(ctx, string(status))
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", status, err)
		}
		*dst = n
		data.TotalRenewals += n
	}

	now := s.now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	n, err := s.repo.CountSince(ctx, startOfMonth)
	if err != nil {
		return nil, fmt.Errorf("count this month: %w", err)
	}
	data.RenewalsThisMonth = n

	recent, _, err := s.repo.List(ctx, repositories.RenewalQuery{}, 0, recentRenewals)
	if err != nil {
		return nil, fmt.Errorf("recent renewals: %w", err)
	}
	data.RecentRenewals = summarize(toDomainList(recent))

	// List is newest first; the oldest pending are the tail of the pending set
	if data.PendingRenewals > 0 {
		offset := int(data.PendingRenewals) - recentRenewals
		if offset < 0 {
			offset = 0
		}
		pending, _, err := s.repo.List(ctx, repositories.RenewalQuery{Status: string(domain.StatusPending)}, offset, recentRenewals)
		if err != nil {
			return nil, fmt.Errorf("pending renewals: %w", err)
		}
		oldest := summarize(toDomainList(pending))
		for i, j := 0, len(oldest)-1; i < j; i, j = i+1, j-1 {
			oldest[i], oldest[j] = oldest[j], oldest[i]
		}
		data.OldestPending = oldest
	} else {
		data.OldestPending = []RenewalSummary{}
	}

	return data, nil
}

// ============================================================
// Applicant Dashboard
// ============================================================

// ApplicantDashboardData represents the applicant's own overview
type ApplicantDashboardData struct {
	TotalRenewals int64                  `json:"total_renewals"`
	ByStatus      map[string]int64       `json:"by_status"`
	Latest        *domain.RenewalRequest `json:"latest"`
	// Document types the latest renewal still lacks
	MissingDocuments []domain.DocumentType `json:"missing_documents"`
}

// GetApplicantDashboard returns the viewer's own renewal overview
func (s *DashboardService) GetApplicantDashboard(ctx context.Context, viewer Viewer) (*ApplicantDashboardData, error) {
	data := &ApplicantDashboardData{
		ByStatus:         map[string]int64{},
		MissingDocuments: []domain.DocumentType{},
	}

	for _, status := range []domain.RenewalStatus{domain.StatusPending, domain.StatusVerified, domain.StatusRejected} {
		_, n, err := s.repo.List(ctx, repositories.RenewalQuery{ApplicantID: viewer.UserID, Status: string(status)}, 0, 1)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", status, err)
		}
		data.ByStatus[string(status)] = n
		data.TotalRenewals += n
	}

	latest, _, err := s.repo.List(ctx, repositories.RenewalQuery{ApplicantID: viewer.UserID}, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("latest renewal: %w", err)
	}
	if len(latest) == 0 {
		return data, nil
	}

	data.Latest = latest[0].ToDomain()
	for _, dt := range domain.DocumentTypes() {
		if dt == domain.DocAdditionalDocuments {
			continue
		}
		if _, ok := data.Latest.Documents[dt]; !ok {
			data.MissingDocuments = append(data.MissingDocuments, dt)
		}
	}
	return data, nil
}

func summarize(renewals []*domain.RenewalRequest) []RenewalSummary {
	out := make([]RenewalSummary, len(renewals))
	for i, r := range renewals {
		out[i] = RenewalSummary{
			ID:                    r.ID,
			FullName:              r.FullName,
			CurrentPassportNumber: r.CurrentPassportNumber,
			Status:                r.Status,
			CreatedAt:             r.CreatedAt,
		}
	}
	return out
}
