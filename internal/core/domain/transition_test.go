package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to RenewalStatus
		want     bool
	}{
		{StatusPending, StatusVerified, true},
		{StatusPending, StatusRejected, true},
		{StatusVerified, StatusRejected, true},
		{StatusRejected, StatusVerified, true},
		{StatusVerified, StatusPending, false},
		{StatusRejected, StatusPending, false},
		{StatusVerified, StatusVerified, false},
		{StatusPending, StatusPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestIsOverride(t *testing.T) {
	assert.True(t, IsOverride(StatusVerified, StatusRejected))
	assert.True(t, IsOverride(StatusRejected, StatusVerified))
	assert.False(t, IsOverride(StatusPending, StatusVerified))
}

func TestValidateUpdate_RejectRequiresReason(t *testing.T) {
	err := ValidateUpdate(RenewalUpdate{Status: StatusRejected, RejectionReason: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrMissingReason)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "rejection_reason", verr.Field)

	require.NoError(t, ValidateUpdate(RenewalUpdate{Status: StatusRejected, RejectionReason: "blurry photo"}))
}

func TestValidateUpdate_UnknownStatus(t *testing.T) {
	assert.ErrorIs(t, ValidateUpdate(RenewalUpdate{Status: "ARCHIVED"}), ErrInvalidStatus)
	assert.ErrorIs(t, ValidateUpdate(RenewalUpdate{Status: StatusPending}), ErrInvalidStatus)
}

func TestValidateTransition(t *testing.T) {
	require.NoError(t, ValidateTransition(StatusPending, RenewalUpdate{Status: StatusVerified}))
	assert.ErrorIs(t,
		ValidateTransition(StatusVerified, RenewalUpdate{Status: StatusVerified}),
		ErrInvalidTransition)
}

func TestParseDocumentType(t *testing.T) {
	dt, err := ParseDocumentType(" nic-front ")
	require.NoError(t, err)
	assert.Equal(t, DocNICFront, dt)

	_, err = ParseDocumentType("driving-licence")
	assert.ErrorIs(t, err, ErrInvalidDocumentType)
}

func TestCleanDocuments(t *testing.T) {
	r := &RenewalRequest{Documents: map[DocumentType]string{
		DocPassportPhoto: "https://files.example/photo.jpg",
		DocNICBack:       "",
	}}
	r.CleanDocuments()
	assert.Len(t, r.Documents, 1)
	assert.Contains(t, r.Documents, DocPassportPhoto)
}

func TestValidateSubmission(t *testing.T) {
	ok := RenewalSubmission{
		FullName:              "Nimal Perera",
		NICNumber:             "199012345678",
		DateOfBirth:           "1990-04-12",
		CurrentPassportNumber: "N1234567",
		Documents:             map[DocumentType]string{DocNICFront: "http://x/nic.jpg"},
	}
	require.NoError(t, ValidateSubmission(ok))

	missing := ok
	missing.NICNumber = " "
	var verr *ValidationError
	require.ErrorAs(t, ValidateSubmission(missing), &verr)
	assert.Equal(t, "nic_number", verr.Field)

	badDoc := ok
	badDoc.Documents = map[DocumentType]string{"selfie": "x"}
	assert.ErrorIs(t, ValidateSubmission(badDoc), ErrInvalidDocumentType)
}
