package signedurl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-affairs-api/pkg/clock"
)

func TestSignerGenerateAndParse(t *testing.T) {
	clk := clock.NewManual(time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC))
	signer := New("secret", time.Hour, clk)

	token, expiresAt, err := signer.Generate("leave-1", "gate-pass")
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(time.Hour), expiresAt)

	claims, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "leave-1", claims.Subject)
	assert.Equal(t, "gate-pass", claims.Scope)
	assert.True(t, expiresAt.Equal(claims.ExpiresAt))
}

func TestSignerRejectsExpiredAndTampered(t *testing.T) {
	clk := clock.NewManual(time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC))
	signer := New("secret", time.Hour, clk)
	token, _, err := signer.Generate("leave-1", "gate-pass")
	require.NoError(t, err)

	_, err = New("other", time.Hour, clk).Parse(token)
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = signer.Parse("leave-2" + token[len("leave-1"):])
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = signer.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalid)

	clk.Advance(time.Hour)
	claims, err := signer.Parse(token)
	assert.ErrorIs(t, err, ErrExpired)
	require.NotNil(t, claims)
	assert.Equal(t, "leave-1", claims.Subject)
}

func TestSignerGenerateGuards(t *testing.T) {
	_, _, err := New("", time.Hour, nil).Generate("leave-1", "gate-pass")
	assert.Error(t, err)
	_, _, err = New("secret", time.Hour, nil).Generate("a.b", "gate-pass")
	assert.Error(t, err)
	_, _, err = New("secret", time.Hour, nil).Generate("leave-1", "")
	assert.Error(t, err)
}
