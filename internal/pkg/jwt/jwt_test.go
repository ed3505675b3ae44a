package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-signing-key"

func Test_GenerateAndValidateAccessToken(t *testing.T) {
	token, err := GenerateAccessToken("u1", "u1@example.com", "admin", secret, 15)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "u1", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateAccessToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken("u1", "", "applicant", secret, 15)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "another-key")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func Test_ValidateAccessToken_Expired(t *testing.T) {
	token, err := GenerateAccessToken("u1", "", "applicant", secret, -5)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, secret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func Test_DecodeUnverified_IgnoresSignatureAndExpiry(t *testing.T) {
	token, err := GenerateAccessToken("u2", "", "applicant", "unknown-to-client", -5)
	require.NoError(t, err)

	claims, err := DecodeUnverified(token)
	require.NoError(t, err)
	assert.Equal(t, "u2", claims.UserID)
	assert.Equal(t, "applicant", claims.Role)
}

func Test_DecodeUnverified_Malformed(t *testing.T) {
	for _, raw := range []string{"", "not-a-jwt", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.!!!.sig"} {
		_, err := DecodeUnverified(raw)
		assert.ErrorIs(t, err, ErrTokenInvalid, raw)
	}
}

func Test_RefreshToken_RoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken("u1", "tok-1", secret, 7)
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", claims.TokenID)
}
