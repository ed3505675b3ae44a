package domain

import "strings"

// transitions lists every allowed status edge.
// VERIFIED <-> REJECTED are admin overrides for correcting review mistakes.
var transitions = map[RenewalStatus][]RenewalStatus{
	StatusPending:  {StatusVerified, StatusRejected},
	StatusVerified: {StatusRejected},
	StatusRejected: {StatusVerified},
}

// CanTransition reports whether from -> to is an allowed edge
func CanTransition(from, to RenewalStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsOverride reports whether the edge re-opens a terminal-leaning status
func IsOverride(from, to RenewalStatus) bool {
	return from != StatusPending && CanTransition(from, to)
}

// ValidateUpdate checks the target status and the rejection reason guard.
// It does not need the current status.
func ValidateUpdate(u RenewalUpdate) error {
	if !u.Status.Valid() || u.Status == StatusPending {
		return &ValidationError{Field: "status", Reason: ErrInvalidStatus}
	}
	if u.Status == StatusRejected && strings.TrimSpace(u.RejectionReason) == "" {
		return &ValidationError{Field: "rejection_reason", Reason: ErrMissingReason}
	}
	return nil
}

// ValidateTransition runs ValidateUpdate and then checks the edge from the current status
func ValidateTransition(current RenewalStatus, u RenewalUpdate) error {
	if err := ValidateUpdate(u); err != nil {
		return err
	}
	if !CanTransition(current, u.Status) {
		return &ValidationError{Field: "status", Reason: ErrInvalidTransition}
	}
	return nil
}

// ValidateSubmission checks the fields an applicant must supply and the document keys
func ValidateSubmission(s RenewalSubmission) error {
	required := []struct {
		field, value string
	}{
		{"full_name", s.FullName},
		{"nic_number", s.NICNumber},
		{"date_of_birth", s.DateOfBirth},
		{"current_passport_number", s.CurrentPassportNumber},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Reason: ErrInvalidInput}
		}
	}
	for k := range s.Documents {
		if _, err := ParseDocumentType(string(k)); err != nil {
			return &ValidationError{Field: "documents." + string(k), Reason: err}
		}
	}
	return nil
}
