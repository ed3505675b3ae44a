package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"passport-portal/internal/adapters/persistence/models"
	"passport-portal/internal/adapters/persistence/repositories"
	"passport-portal/internal/core/domain"
	"passport-portal/internal/pkg/password"

	"gorm.io/gorm"
)

// User service errors
var (
	ErrOldPasswordWrong    = errors.New("old password is incorrect")
	ErrCannotChangeOwnRole = errors.New("cannot change your own role")
	ErrInvalidRole         = errors.New("invalid role")
)

// UserService handles profile and account management
type UserService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
	}
}

// UpdateProfileInput represents profile changes
type UpdateProfileInput struct {
	FullName *string `json:"full_name"`
}

// ChangePasswordInput represents a password change
type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (s *UserService) load(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetProfile gets own profile
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.UserResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateProfile updates own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, &domain.ValidationError{Field: "full_name", Reason: domain.ErrInvalidInput}
		}
		user.FullName = name
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// ChangePassword verifies the old password, stores the new one and signs
// out every other session of the user
func (s *UserService) ChangePassword(ctx context.Context, userID string, input ChangePasswordInput) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}
	if !password.ValidatePassword(input.NewPassword) {
		return ErrWeakPassword
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		log.Printf("⚠️ Failed to revoke sessions after password change for %s: %v", userID, err)
	}
	return nil
}

// SetUserRole grants or removes reviewer rights
func (s *UserService) SetUserRole(ctx context.Context, adminID, userID string, role domain.Role) (*models.UserResponse, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if adminID == userID {
		return nil, ErrCannotChangeOwnRole
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Role = string(role)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ Role of %s set to %s by %s", user.Email, role, adminID)
	return user.ToResponse(), nil
}
