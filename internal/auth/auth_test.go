package auth

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillapp/quill/internal/domain"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyPassword(hash, "correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "wrong password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_Limits(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)

	_, err = HashPassword(strings.Repeat("a", 1025))
	assert.Error(t, err)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	ok, err := VerifyPassword("not-a-hash", "password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func newTestTokenService(t *testing.T, d time.Duration) *TokenService {
	t.Helper()

	key := hex.EncodeToString([]byte(strings.Repeat("k", 32)))
	svc, err := NewTokenService(key, d)
	require.NoError(t, err)
	return svc
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	user := &domain.User{Email: "ada@example.com"}
	user.ID = "user-1"

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "user-1", claims.Subject)
	assert.NotEmpty(t, claims.TokenID)
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute)

	user := &domain.User{Email: "ada@example.com"}
	user.ID = "user-1"

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	_, err := svc.VerifyAccessToken("v4.local.garbage")
	assert.Error(t, err)
}

func TestNewTokenService_KeyValidation(t *testing.T) {
	_, err := NewTokenService("short", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(strings.Repeat("z", 64), time.Hour)
	assert.Error(t, err, "non-hex key rejected")
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := t.TempDir()

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	// Second load returns the same key.
	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}
