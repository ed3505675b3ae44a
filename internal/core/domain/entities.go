package domain

import (
	"maps"
	"strings"
	"time"
)

// Role represents user role in the system
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleApplicant Role = "applicant"
)

// Valid reports whether the role is one the portal knows how to route
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleApplicant
}

// Credential is the opaque bearer token issued by the identity provider
type Credential struct {
	Token     string     `yaml:"token" json:"token"`
	ExpiresAt *time.Time `yaml:"expires_at,omitempty" json:"expires_at,omitempty"`
}

// IsZero reports whether the credential carries no token
func (c Credential) IsZero() bool {
	return strings.TrimSpace(c.Token) == ""
}

// Identity is derived from a credential's embedded claims.
// It is a personalization hint, never an authorization proof.
type Identity struct {
	SubjectID string
	Role      Role
}

// RenewalStatus represents the review status of a renewal request
type RenewalStatus string

const (
	StatusPending  RenewalStatus = "PENDING"
	StatusVerified RenewalStatus = "VERIFIED"
	StatusRejected RenewalStatus = "REJECTED"
)

// Valid reports whether the status is a known review status
func (s RenewalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// DocumentType is a key of the renewal documents map
type DocumentType string

const (
	DocCurrentPassport     DocumentType = "current-passport"
	DocNICFront            DocumentType = "nic-front"
	DocNICBack             DocumentType = "nic-back"
	DocBirthCertificate    DocumentType = "birth-certificate"
	DocPassportPhoto       DocumentType = "passport-photo"
	DocAdditionalDocuments DocumentType = "additional-documents"
)

// DocumentTypes returns every accepted document key
func DocumentTypes() []DocumentType {
	return []DocumentType{
		DocCurrentPassport,
		DocNICFront,
		DocNICBack,
		DocBirthCertificate,
		DocPassportPhoto,
		DocAdditionalDocuments,
	}
}

// ParseDocumentType validates a raw document key
func ParseDocumentType(raw string) (DocumentType, error) {
	candidate := DocumentType(strings.TrimSpace(raw))
	for _, t := range DocumentTypes() {
		if t == candidate {
			return t, nil
		}
	}
	return "", ErrInvalidDocumentType
}

// RenewalRequest represents a passport renewal submission
type RenewalRequest struct {
	ID             string `json:"id"`
	ApplicantID    string `json:"applicant_id"`
	ApplicantEmail string `json:"applicant_email"`

	// Biographical
	FullName    string `json:"full_name"`
	NICNumber   string `json:"nic_number"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender,omitempty"`
	Address     string `json:"address,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`

	// Passport
	CurrentPassportNumber string `json:"current_passport_number"`
	PassportIssueDate     string `json:"passport_issue_date,omitempty"`
	PassportExpiryDate    string `json:"passport_expiry_date,omitempty"`
	PassportType          string `json:"passport_type,omitempty"`
	ServiceType           string `json:"service_type,omitempty"`

	Documents map[DocumentType]string `json:"documents,omitempty"`

	Status          RenewalStatus `json:"status"`
	AdminNotes      string        `json:"admin_notes,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	VerifiedBy string     `json:"verified_by,omitempty"`
}

// CleanDocuments drops empty references so every key maps to a resolvable value
func (r *RenewalRequest) CleanDocuments() {
	for k, v := range r.Documents {
		if strings.TrimSpace(v) == "" {
			delete(r.Documents, k)
		}
	}
}

// Clone returns a copy that shares no maps or pointers with r
func (r *RenewalRequest) Clone() *RenewalRequest {
	if r == nil {
		return nil
	}
	out := *r
	out.Documents = maps.Clone(r.Documents)
	if r.VerifiedAt != nil {
		at := *r.VerifiedAt
		out.VerifiedAt = &at
	}
	return &out
}

// RenewalUpdate is the admin mutation body
type RenewalUpdate struct {
	Status          RenewalStatus `json:"status"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	AdminNotes      string        `json:"admin_notes,omitempty"`
}

// RenewalSubmission is the applicant creation body
type RenewalSubmission struct {
	FullName              string                  `json:"full_name"`
	NICNumber             string                  `json:"nic_number"`
	DateOfBirth           string                  `json:"date_of_birth"`
	Gender                string                  `json:"gender,omitempty"`
	Address               string                  `json:"address,omitempty"`
	PhoneNumber           string                  `json:"phone_number,omitempty"`
	CurrentPassportNumber string                  `json:"current_passport_number"`
	PassportIssueDate     string                  `json:"passport_issue_date,omitempty"`
	PassportExpiryDate    string                  `json:"passport_expiry_date,omitempty"`
	PassportType          string                  `json:"passport_type,omitempty"`
	ServiceType           string                  `json:"service_type,omitempty"`
	Documents             map[DocumentType]string `json:"documents,omitempty"`
}

// RenewalFilter holds opaque list filters forwarded verbatim
type RenewalFilter struct {
	Values map[string]string
	Page   int
	Limit  int
}

// RenewalPage is one page of a renewal listing
type RenewalPage struct {
	Items []*RenewalRequest `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// Clone copies the page and every item on it
func (p *RenewalPage) Clone() *RenewalPage {
	if p == nil {
		return nil
	}
	out := *p
	if p.Items != nil {
		out.Items = make([]*RenewalRequest, len(p.Items))
		for i, r := range p.Items {
			out.Items[i] = r.Clone()
		}
	}
	return &out
}
