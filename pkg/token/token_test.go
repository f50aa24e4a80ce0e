package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewOTPProducesDigitsAndVerifiableHash(t *testing.T) {
	issuer := NewIssuer(6, bcrypt.MinCost)

	code, hash, err := issuer.NewOTP()
	require.NoError(t, err)
	require.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9', "unexpected rune %q", r)
	}
	assert.NotEqual(t, code, hash)
	assert.True(t, issuer.VerifyOTP(hash, code))
	assert.False(t, issuer.VerifyOTP(hash, "not-it"))
	assert.False(t, issuer.VerifyOTP("", code))
}

func TestActionTokensAreUnique(t *testing.T) {
	issuer := NewIssuer(0, bcrypt.MinCost)
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok := issuer.NewActionToken()
		_, dup := seen[tok]
		require.False(t, dup)
		seen[tok] = struct{}{}
	}
}

func TestOTPLengthStaysWithinAcceptedBounds(t *testing.T) {
	cases := map[int]int{
		-1: DefaultOTPLength,
		0:  DefaultOTPLength,
		2:  MinOTPLength,
		4:  4,
		10: 10,
		12: MaxOTPLength,
	}
	for configured, want := range cases {
		code, _, err := NewIssuer(configured, bcrypt.MinCost).NewOTP()
		require.NoError(t, err)
		assert.Len(t, code, want, "configured %d", configured)
	}
}
