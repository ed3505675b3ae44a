package models

import (
	"time"

	"passport-portal/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	FullName  string         `gorm:"size:150;not null" json:"full_name"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'applicant';index" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    string     `gorm:"index;size:36;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Renewal Tables
// ============================================================

// RenewalRequest represents renewal_requests table
type RenewalRequest struct {
	ID             string `gorm:"primaryKey;size:36" json:"id"`
	ApplicantID    string `gorm:"size:36;not null;index" json:"applicant_id"`
	ApplicantEmail string `gorm:"size:100;not null" json:"applicant_email"`

	FullName    string `gorm:"size:150;not null" json:"full_name"`
	NICNumber   string `gorm:"column:nic_number;size:20;not null;index" json:"nic_number"`
	DateOfBirth string `gorm:"size:10;not null" json:"date_of_birth"`
	Gender      string `gorm:"size:10" json:"gender"`
	Address     string `gorm:"type:text" json:"address"`
	PhoneNumber string `gorm:"size:20" json:"phone_number"`

	CurrentPassportNumber string `gorm:"size:20;not null;index" json:"current_passport_number"`
	PassportIssueDate     string `gorm:"size:10" json:"passport_issue_date"`
	PassportExpiryDate    string `gorm:"size:10" json:"passport_expiry_date"`
	PassportType          string `gorm:"size:30" json:"passport_type"`
	ServiceType           string `gorm:"size:30" json:"service_type"`

	Status          string         `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	AdminNotes      string         `gorm:"type:text" json:"admin_notes"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason"`
	VerifiedAt      *time.Time     `json:"verified_at"`
	VerifiedBy      string         `gorm:"size:36" json:"verified_by"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Documents []RenewalDocument `gorm:"foreignKey:RenewalID" json:"documents,omitempty"`
}

func (RenewalRequest) TableName() string {
	return "renewal_requests"
}

// ToDomain maps the row to the wire representation
func (r *RenewalRequest) ToDomain() *domain.RenewalRequest {
	out := &domain.RenewalRequest{
		ID:                    r.ID,
		ApplicantID:           r.ApplicantID,
		ApplicantEmail:        r.ApplicantEmail,
		FullName:              r.FullName,
		NICNumber:             r.NICNumber,
		DateOfBirth:           r.DateOfBirth,
		Gender:                r.Gender,
		Address:               r.Address,
		PhoneNumber:           r.PhoneNumber,
		CurrentPassportNumber: r.CurrentPassportNumber,
		PassportIssueDate:     r.PassportIssueDate,
		PassportExpiryDate:    r.PassportExpiryDate,
		PassportType:          r.PassportType,
		ServiceType:           r.ServiceType,
		Status:                domain.RenewalStatus(r.Status),
		AdminNotes:            r.AdminNotes,
		RejectionReason:       r.RejectionReason,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
		VerifiedAt:            r.VerifiedAt,
		VerifiedBy:            r.VerifiedBy,
	}
	if len(r.Documents) > 0 {
		out.Documents = make(map[domain.DocumentType]string, len(r.Documents))
		for _, d := range r.Documents {
			out.Documents[domain.DocumentType(d.DocumentType)] = d.URL
		}
	}
	return out
}

// RenewalDocument is one uploaded file of a renewal
type RenewalDocument struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RenewalID    string    `gorm:"size:36;not null;uniqueIndex:idx_renewal_doc_type" json:"renewal_id"`
	DocumentType string    `gorm:"size:40;not null;uniqueIndex:idx_renewal_doc_type" json:"document_type"`
	URL          string    `gorm:"size:500;not null" json:"url"`
	FileName     string    `gorm:"size:255" json:"file_name"`
	ContentType  string    `gorm:"size:100" json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	UploadedBy   string    `gorm:"size:36" json:"uploaded_by"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RenewalDocument) TableName() string {
	return "renewal_documents"
}

// RenewalHistory is the audit trail of a renewal
type RenewalHistory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RenewalID   string    `gorm:"size:36;not null;index" json:"renewal_id"`
	Action      string    `gorm:"size:30;not null" json:"action"`
	FromStatus  string    `gorm:"size:20" json:"from_status"`
	ToStatus    string    `gorm:"size:20" json:"to_status"`
	Description string    `gorm:"type:text" json:"description"`
	PerformedBy string    `gorm:"size:36;not null" json:"performed_by"`
	IPAddress   string    `gorm:"size:50" json:"ip_address"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (RenewalHistory) TableName() string {
	return "renewal_history"
}

// History actions
const (
	ActionCreate       = "CREATE"
	ActionStatusChange = "STATUS_CHANGE"
	ActionOverride     = "OVERRIDE"
	ActionDocUpload    = "DOC_UPLOAD"
)

// All returns every model for AutoMigrate
func All() []interface{} {
	return []interface{}{
		&User{},
		&RefreshToken{},
		&RenewalRequest{},
		&RenewalDocument{},
		&RenewalHistory{},
	}
}
