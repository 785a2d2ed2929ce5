package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrainhub/models"
)

func TestJWTRoundTripCarriesRole(t *testing.T) {
	SetJWTSecret("test-secret", time.Hour)
	p := models.Principal{UserID: "42", Email: "fanny@example.com", Name: "Fanny", Role: models.RoleModerator}

	token, err := GenerateJWTToken(p)
	require.NoError(t, err)

	claims, err := ParseJWTToken(token)
	require.NoError(t, err)
	assert.Equal(t, p, claims.Principal())
}

func TestParseJWTTokenRejectsTampering(t *testing.T) {
	SetJWTSecret("test-secret", time.Hour)
	token, err := GenerateJWTToken(models.Principal{Email: "a@example.com"})
	require.NoError(t, err)

	SetJWTSecret("other-secret", time.Hour)
	_, err = ParseJWTToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseJWTToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseJWTTokenExpired(t *testing.T) {
	SetJWTSecret("test-secret", time.Nanosecond)
	token, err := GenerateJWTToken(models.Principal{Email: "a@example.com"})
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	_, err = ParseJWTToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	SetJWTSecret("test-secret", time.Hour)
}

func TestClaimsDefaultToUserRole(t *testing.T) {
	c := Claims{Email: "a@example.com"}
	assert.Equal(t, models.RoleUser, c.Principal().Role)
}

func TestGuestPrincipalIsUniqueAndReadOnly(t *testing.T) {
	a, b := GuestPrincipal(), GuestPrincipal()
	assert.NotEqual(t, a.Email, b.Email)
	assert.True(t, a.IsGuest())
	assert.Equal(t, GuestName, a.Name)
}

func TestExtractNameFromEmail(t *testing.T) {
	assert.Equal(t, "marius", ExtractNameFromEmail("marius@example.com"))
	assert.Equal(t, "", ExtractNameFromEmail(""))
}

func TestGenerateSecretHash(t *testing.T) {
	h1 := GenerateSecretHash("a@example.com", "client", "secret")
	h2 := GenerateSecretHash("a@example.com", "client", "secret")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, GenerateSecretHash("b@example.com", "client", "secret"))
}
