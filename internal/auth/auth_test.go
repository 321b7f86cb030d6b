package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestPasswordRoundTrip hashes a password and expects that only the original
// password verifies against the hash.
func TestPasswordRoundTrip(t *testing.T) {
	provider := New("secret", 30*time.Minute)
	hash, err := provider.HashPassword("bullo92")
	assert.NoError(t, err)
	assert.NotEqual(t, "bullo92", hash)
	assert.True(t, provider.VerifyPassword("bullo92", hash))
	assert.False(t, provider.VerifyPassword("bullo93", hash))
	assert.False(t, provider.VerifyPassword("", hash))
}

// TestPasswordHashesAreSalted hashes the same password twice and expects two
// different hashes that both verify.
func TestPasswordHashesAreSalted(t *testing.T) {
	provider := New("secret", 30*time.Minute)
	first, err := provider.HashPassword("bullo92")
	assert.NoError(t, err)
	second, err := provider.HashPassword("bullo92")
	assert.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.True(t, provider.VerifyPassword("bullo92", first))
	assert.True(t, provider.VerifyPassword("bullo92", second))
}

// TestTokenRoundTrip issues a token and expects that verification returns the
// original user id.
func TestTokenRoundTrip(t *testing.T) {
	provider := New("secret", 30*time.Minute)
	token, err := provider.IssueToken(42)
	assert.NoError(t, err)
	userID, err := provider.VerifyToken(token)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

// TestExpiredToken issues an already expired token and expects verification
// to fail.
func TestExpiredToken(t *testing.T) {
	provider := New("secret", -time.Minute)
	token, err := provider.IssueToken(42)
	assert.NoError(t, err)
	_, err = provider.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestTokenWrongSecret verifies a token against a provider with a different
// signing secret and expects failure.
func TestTokenWrongSecret(t *testing.T) {
	issuer := New("secret", 30*time.Minute)
	verifier := New("other-secret", 30*time.Minute)
	token, err := issuer.IssueToken(42)
	assert.NoError(t, err)
	_, err = verifier.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestMalformedTokens feeds garbage into VerifyToken and expects that all of
// it is rejected with the same undifferentiated error.
func TestMalformedTokens(t *testing.T) {
	provider := New("secret", 30*time.Minute)
	malformed := []string{
		"",
		"not a token",
		"a.b.c",
		"eyJhbGciOiJIUzI1NiJ9.e30.",
	}
	for _, token := range malformed {
		_, err := provider.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token: "+token)
	}
}
