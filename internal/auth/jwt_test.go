package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commute/internal/domain"
)

func TestTokenService_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("secret", "commute", time.Hour)

	token, err := svc.Issue(domain.Actor{ID: "user-1", Role: domain.RoleBusiness})
	require.NoError(t, err)

	actor, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{ID: "user-1", Role: domain.RoleBusiness}, actor)
}

func TestTokenService_Rejects(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("secret", "commute", time.Hour)

	expired, err := NewTokenService("secret", "commute", -time.Minute).Issue(domain.Actor{ID: "u", Role: domain.RoleDriver})
	require.NoError(t, err)

	wrongSecret, err := NewTokenService("other", "commute", time.Hour).Issue(domain.Actor{ID: "u", Role: domain.RoleDriver})
	require.NoError(t, err)

	wrongIssuer, err := NewTokenService("secret", "elsewhere", time.Hour).Issue(domain.Actor{ID: "u", Role: domain.RoleDriver})
	require.NoError(t, err)

	unknownRole, err := svc.Issue(domain.Actor{ID: "u", Role: domain.Role("root")})
	require.NoError(t, err)

	noSubject, err := svc.Issue(domain.Actor{Role: domain.RoleAdmin})
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u",
			Issuer:    "commute",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	testCases := map[string]string{
		"expired":      expired,
		"wrong secret": wrongSecret,
		"wrong issuer": wrongIssuer,
		"unknown role": unknownRole,
		"no subject":   noSubject,
		"alg none":     none,
		"garbage":      "not-a-token",
	}

	for name, token := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
