package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	Cost = bcrypt.MinCost
	defer func() { Cost = DefaultCost }()

	hash, err := Hash("renew2026pass")
	require.NoError(t, err)
	assert.True(t, Verify("renew2026pass", hash))
	assert.False(t, Verify("renew2026pasS", hash))
}

func TestHashToken_IsStable(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}

func TestValidatePassword(t *testing.T) {
	assert.True(t, ValidatePassword("passport1"))
	assert.False(t, ValidatePassword("short1"))
	assert.False(t, ValidatePassword("onlyletters"))
	assert.False(t, ValidatePassword("1234567890"))
}
