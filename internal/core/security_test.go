// AngelaMos | 2026
// security_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	hash := HashToken(token)
	assert.Len(t, hash, 64)
	assert.True(t, CompareTokenHash(token, hash))
	assert.False(t, CompareTokenHash(token+"x", hash))
}

func TestGenerateSecureTokenIsRandom(t *testing.T) {
	a, err := GenerateIdempotencyKey()
	require.NoError(t, err)
	b, err := GenerateIdempotencyKey()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
