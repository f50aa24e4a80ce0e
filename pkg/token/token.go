package token

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultOTPLength is used when the issuer is configured with a non-positive length.
const DefaultOTPLength = 6

// Bounds accepted by the approval request payload.
const (
	MinOTPLength = 4
	MaxOTPLength = 10
)

// Issuer mints parent action tokens and mentor approval codes.
type Issuer struct {
	otpLength  int
	bcryptCost int
}

// NewIssuer returns an issuer producing codes of otpLength digits hashed with cost.
// Lengths are clamped to [MinOTPLength, MaxOTPLength] so every issued code can be
// submitted back. A cost of zero falls back to bcrypt.DefaultCost.
func NewIssuer(otpLength, cost int) *Issuer {
	switch {
	case otpLength <= 0:
		otpLength = DefaultOTPLength
	case otpLength < MinOTPLength:
		otpLength = MinOTPLength
	case otpLength > MaxOTPLength:
		otpLength = MaxOTPLength
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Issuer{otpLength: otpLength, bcryptCost: cost}
}

// NewActionToken returns an unguessable single-use token for an emailed link.
func (i *Issuer) NewActionToken() string {
	return uuid.NewString()
}

// NewOTP returns a zero-padded numeric code and its bcrypt hash.
func (i *Issuer) NewOTP() (code string, hash string, err error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(i.otpLength)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", "", fmt.Errorf("generate otp: %w", err)
	}
	code = fmt.Sprintf("%0*d", i.otpLength, n)
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), i.bcryptCost)
	if err != nil {
		return "", "", fmt.Errorf("hash otp: %w", err)
	}
	return code, string(hashed), nil
}

// VerifyOTP reports whether code matches the stored hash. Malformed hashes are
// reported as a mismatch.
func (i *Issuer) VerifyOTP(hash, code string) bool {
	if hash == "" || code == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
