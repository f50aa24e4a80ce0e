package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-affairs-api/internal/models"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
)

func newTestAuthService(secret string, now time.Time) *AuthService {
	svc := NewAuthService(nil, AuthConfig{
		AccessTokenSecret: secret,
		AccessTokenExpiry: time.Hour,
		Issuer:            "student-affairs",
	})
	svc.now = func() time.Time { return now }
	return svc
}

func TestAuthServiceRoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	svc := newTestAuthService("secret", now)

	token, expiresAt, err := svc.IssueToken("uid-mentor", models.RoleMentor, "m@campus.edu", "Dr. Rao")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-mentor", claims.UserID)
	assert.Equal(t, models.RoleMentor, claims.Role)
	assert.Equal(t, "m@campus.edu", claims.Email)
}

func TestAuthServiceRejectsBadTokens(t *testing.T) {
	now := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	issuer := newTestAuthService("secret", now)
	token, _, err := issuer.IssueToken("uid-student", models.RoleStudent, "s@campus.edu", "Asha")
	require.NoError(t, err)

	_, err = newTestAuthService("other-secret", now).ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = newTestAuthService("secret", now.Add(2*time.Hour)).ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = issuer.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	foreign := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "elsewhere"})
	foreign.now = func() time.Time { return now }
	other, _, err := foreign.IssueToken("uid-student", models.RoleStudent, "", "")
	require.NoError(t, err)
	_, err = issuer.ValidateToken(other)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
