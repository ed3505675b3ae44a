package repositories

import (
	"context"
	"time"

	"passport-portal/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	// Rotate fails with gorm.ErrRecordNotFound when oldID was already revoked.
	Rotate(ctx context.Context, oldID uint, next *models.RefreshToken) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// RenewalQuery holds list filters
type RenewalQuery struct {
	Status      string
	Search      string
	ApplicantID string
}

// RenewalRepository defines renewal repository interface
type RenewalRepository interface {
	Create(ctx context.Context, renewal *models.RenewalRequest, history *models.RenewalHistory) error
	GetByID(ctx context.Context, id string) (*models.RenewalRequest, error)
	List(ctx context.Context, q RenewalQuery, offset, limit int) ([]*models.RenewalRequest, int64, error)
	// UpdateStatus saves renewal only if its stored status still equals expected.
	// It returns ErrStaleStatus when another writer got there first.
	UpdateStatus(ctx context.Context, renewal *models.RenewalRequest, expected string, history *models.RenewalHistory) error
	UpsertDocument(ctx context.Context, doc *models.RenewalDocument, history *models.RenewalHistory) error
	CountByStatus(ctx context.Context, status string) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	History(ctx context.Context, renewalID string) ([]*models.RenewalHistory, error)
}
