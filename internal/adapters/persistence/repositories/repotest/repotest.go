// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"passport-portal/internal/adapters/persistence/models"
	"passport-portal/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

var (
	_ repositories.UserRepository         = (*Users)(nil)
	_ repositories.RefreshTokenRepository = (*Tokens)(nil)
	_ repositories.RenewalRepository      = (*Renewals)(nil)
)

// Users is an in-memory repositories.UserRepository
type Users struct {
	mu    sync.Mutex
	users map[string]*models.User
}

// NewUsers returns an empty user store
func NewUsers() *Users {
	return &Users{users: make(map[string]*models.User)}
}

func (r *Users) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *Users) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *Users) Update(ctx context.Context, user *models.User) error {
	return r.Create(ctx, user)
}

func (r *Users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *Users) CountByRole(ctx context.Context, role string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// Tokens is an in-memory repositories.RefreshTokenRepository
type Tokens struct {
	mu     sync.Mutex
	nextID uint
	tokens map[uint]*models.RefreshToken
}

// NewTokens returns an empty token store
func NewTokens() *Tokens {
	return &Tokens{tokens: make(map[uint]*models.RefreshToken)}
}

func (r *Tokens) Create(ctx context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	token.ID = r.nextID
	cp := *token
	r.tokens[token.ID] = &cp
	return nil
}

func (r *Tokens) GetByTokenHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.TokenHash == hash && t.RevokedAt == nil {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *Tokens) Revoke(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[id]; ok {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func (r *Tokens) Rotate(ctx context.Context, oldID uint, next *models.RefreshToken) error {
	r.mu.Lock()
	t, ok := r.tokens[oldID]
	if !ok || t.RevokedAt != nil {
		r.mu.Unlock()
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	r.mu.Unlock()
	return r.Create(ctx, next)
}

func (r *Tokens) RevokeByTokenHash(ctx context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.TokenHash == hash {
			now := time.Now()
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *Tokens) RevokeAllByUserID(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *Tokens) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tokens {
		if t.RevokedAt != nil || time.Now().After(t.ExpiresAt) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

// Active counts tokens that are not revoked
func (r *Tokens) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tokens {
		if t.RevokedAt == nil {
			n++
		}
	}
	return n
}

// Renewals is an in-memory repositories.RenewalRepository
type Renewals struct {
	mu       sync.Mutex
	renewals map[string]*models.RenewalRequest
	history  []*models.RenewalHistory
	// BeforeUpdate runs inside UpdateStatus, before the status guard
	BeforeUpdate func(r *models.RenewalRequest)
}

// NewRenewals returns an empty renewal store
func NewRenewals() *Renewals {
	return &Renewals{renewals: make(map[string]*models.RenewalRequest)}
}

func (r *Renewals) Create(ctx context.Context, renewal *models.RenewalRequest, history *models.RenewalHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	renewal.CreatedAt = time.Now()
	renewal.UpdatedAt = renewal.CreatedAt
	for i := range renewal.Documents {
		renewal.Documents[i].RenewalID = renewal.ID
	}
	cp := *renewal
	r.renewals[renewal.ID] = &cp
	if history != nil {
		history.RenewalID = renewal.ID
		r.history = append(r.history, history)
	}
	return nil
}

func (r *Renewals) GetByID(ctx context.Context, id string) (*models.RenewalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.renewals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *row
	cp.Documents = append([]models.RenewalDocument(nil), row.Documents...)
	return &cp, nil
}

func (r *Renewals) List(ctx context.Context, q repositories.RenewalQuery, offset, limit int) ([]*models.RenewalRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*models.RenewalRequest
	for _, row := range r.renewals {
		if q.Status != "" && row.Status != q.Status {
			continue
		}
		if q.ApplicantID != "" && row.ApplicantID != q.ApplicantID {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(row.FullName), strings.ToLower(q.Search)) {
			continue
		}
		cp := *row
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *Renewals) UpdateStatus(ctx context.Context, renewal *models.RenewalRequest, expected string, history *models.RenewalHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.renewals[renewal.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if r.BeforeUpdate != nil {
		r.BeforeUpdate(row)
	}
	if row.Status != expected {
		return repositories.ErrStaleStatus
	}
	row.Status = renewal.Status
	row.AdminNotes = renewal.AdminNotes
	row.RejectionReason = renewal.RejectionReason
	row.VerifiedAt = renewal.VerifiedAt
	row.VerifiedBy = renewal.VerifiedBy
	if history != nil {
		r.history = append(r.history, history)
	}
	return nil
}

func (r *Renewals) UpsertDocument(ctx context.Context, doc *models.RenewalDocument, history *models.RenewalHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.renewals[doc.RenewalID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	replaced := false
	for i := range row.Documents {
		if row.Documents[i].DocumentType == doc.DocumentType {
			row.Documents[i] = *doc
			replaced = true
		}
	}
	if !replaced {
		row.Documents = append(row.Documents, *doc)
	}
	if history != nil {
		r.history = append(r.history, history)
	}
	return nil
}

func (r *Renewals) CountByStatus(ctx context.Context, status string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.renewals {
		if row.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *Renewals) CountSince(ctx context.Context, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.renewals {
		if !row.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *Renewals) History(ctx context.Context, renewalID string) ([]*models.RenewalHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RenewalHistory
	for _, h := range r.history {
		if h.RenewalID == renewalID {
			out = append(out, h)
		}
	}
	return out, nil
}
