package identity_test

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcampus/backend/internal/identity"
)

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v, err := identity.NewJWTVerifier("secret", "smartcampus-dev")
	require.NoError(t, err)

	token, err := v.IssueToken("uid-1", "ann@campus.edu", "Ann", time.Hour)
	require.NoError(t, err)

	caller, err := v.Verify(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, "uid-1", caller.UID)
	assert.Equal(t, "ann@campus.edu", caller.Email)
	assert.Equal(t, "Ann", caller.Name)
	assert.Empty(t, caller.Role)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v, err := identity.NewJWTVerifier("secret", "smartcampus-dev")
	require.NoError(t, err)
	other, err := identity.NewJWTVerifier("other-secret", "smartcampus-dev")
	require.NoError(t, err)
	wrongIssuer, err := identity.NewJWTVerifier("secret", "someone-else")
	require.NoError(t, err)

	expired, err := v.IssueToken("uid-1", "", "", -time.Minute)
	require.NoError(t, err)
	forged, err := other.IssueToken("uid-1", "", "", time.Hour)
	require.NoError(t, err)
	foreign, err := wrongIssuer.IssueToken("uid-1", "", "", time.Hour)
	require.NoError(t, err)
	noSubject, err := v.IssueToken("", "", "", time.Hour)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "uid-1",
		Issuer:    "smartcampus-dev",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"empty":      "",
		"garbage":    "not-a-token",
		"expired":    expired,
		"forged":     forged,
		"issuer":     foreign,
		"no subject": noSubject,
		"alg none":   unsigned,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), token)
			assert.ErrorIs(t, err, identity.ErrInvalidToken)
		})
	}
}

func TestNewJWTVerifier_RequiresSecret(t *testing.T) {
	_, err := identity.NewJWTVerifier("", "iss")
	assert.Error(t, err)
}
