package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"passport-portal/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleStatus is returned when a conditional status update lost the race
var ErrStaleStatus = errors.New("renewal status changed concurrently")

// renewalRepository implements RenewalRepository interface
type renewalRepository struct {
	db *gorm.DB
}

// NewRenewalRepository creates a new renewal repository
func NewRenewalRepository(db *gorm.DB) RenewalRepository {
	return &renewalRepository{db: db}
}

// Create creates a renewal and its CREATE history entry
func (r *renewalRepository) Create(ctx context.Context, renewal *models.RenewalRequest, history *models.RenewalHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(renewal).Error; err != nil {
			return err
		}
		if history == nil {
			return nil
		}
		history.RenewalID = renewal.ID
		return tx.Create(history).Error
	})
}

// GetByID gets a renewal with its documents
func (r *renewalRepository) GetByID(ctx context.Context, id string) (*models.RenewalRequest, error) {
	var renewal models.RenewalRequest
	err := r.db.WithContext(ctx).
		Preload("Documents").
		Where("id = ?", id).
		First(&renewal).Error
	if err != nil {
		return nil, err
	}
	return &renewal, nil
}

// List lists renewals newest first with filters and pagination
func (r *renewalRepository) List(ctx context.Context, q RenewalQuery, offset, limit int) ([]*models.RenewalRequest, int64, error) {
	var renewals []*models.RenewalRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.RenewalRequest{})
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.ApplicantID != "" {
		query = query.Where("applicant_id = ?", q.ApplicantID)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + s + "%"
		query = query.Where(
			"full_name LIKE ? OR nic_number LIKE ? OR current_passport_number LIKE ? OR applicant_email LIKE ?",
			like, like, like, like,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Documents").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&renewals).Error

	return renewals, total, err
}

// UpdateStatus writes the review fields guarded by the expected current status
func (r *renewalRepository) UpdateStatus(ctx context.Context, renewal *models.RenewalRequest, expected string, history *models.RenewalHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.RenewalRequest{}).
			Where("id = ?", renewal.ID).
			Where("status = ?", expected).
			Updates(map[string]interface{}{
				"status":           renewal.Status,
				"admin_notes":      renewal.AdminNotes,
				"rejection_reason": renewal.RejectionReason,
				"verified_at":      renewal.VerifiedAt,
				"verified_by":      renewal.VerifiedBy,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleStatus
		}
		if history == nil {
			return nil
		}
		return tx.Create(history).Error
	})
}

// UpsertDocument stores a document, replacing an earlier one of the same type
func (r *renewalRepository) UpsertDocument(ctx context.Context, doc *models.RenewalDocument, history *models.RenewalHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "renewal_id"}, {Name: "document_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"url", "file_name", "content_type", "size_bytes", "uploaded_by", "updated_at"}),
		}).Create(doc).Error
		if err != nil {
			return err
		}
		if history == nil {
			return nil
		}
		return tx.Create(history).Error
	})
}

// CountByStatus counts renewals in status
func (r *renewalRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RenewalRequest{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// CountSince counts renewals submitted at or after since
func (r *renewalRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RenewalRequest{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

// History returns the audit trail oldest first
func (r *renewalRepository) History(ctx context.Context, renewalID string) ([]*models.RenewalHistory, error) {
	var entries []*models.RenewalHistory
	err := r.db.WithContext(ctx).
		Where("renewal_id = ?", renewalID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}
