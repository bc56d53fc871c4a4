package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	validator := NewJWTValidator("test-secret")

	token, err := validator.GenerateToken(42, time.Minute)
	require.NoError(t, err)

	userID, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer := NewJWTValidator("secret-a")
	validator := NewJWTValidator("secret-b")

	token, err := issuer.GenerateToken(42, time.Minute)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	require.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	validator := NewJWTValidator("test-secret")

	token, err := validator.GenerateToken(42, -time.Minute)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	require.Error(t, err)
}

func TestValidateTokenEmpty(t *testing.T) {
	validator := NewJWTValidator("test-secret")

	_, err := validator.ValidateToken("")
	require.Error(t, err)
}

func TestExtractTokenPrefersQueryParam(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws/channels/1?token=query-token", nil)
	req.Header.Set("Authorization", "Bearer header-token")

	assert.Equal(t, "query-token", ExtractTokenFromRequest(req))
}

func TestExtractTokenFallsBackToHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/channels", nil)
	req.Header.Set("Authorization", "Bearer header-token")

	assert.Equal(t, "header-token", ExtractTokenFromRequest(req))
}

func TestExtractTokenMissing(t *testing.T) {
	req := httptest.NewRequest("GET", "/channels", nil)
	assert.Equal(t, "", ExtractTokenFromRequest(req))
}
