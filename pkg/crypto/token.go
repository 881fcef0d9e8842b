package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"
)

var (
	ErrTooManyArgs   = errors.New("too many arguments. expected only 1")
	ErrInvalidDigits = errors.New("code must have between 1 and 18 digits")
)

const (
	// ResetTokenBytes yields a 40 character hex reset token.
	ResetTokenBytes = 20

	VerificationCodeDigits = 6
)

type TokenPair struct {
	Token string // value returned to client
	Hash  string // value in storage
}

// GenerateResetToken returns a hex token for password-reset links together
// with the digest to persist.
func GenerateResetToken() (*TokenPair, error) {
	bytes := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return nil, err
	}

	token := hex.EncodeToString(bytes)
	return &TokenPair{
		Token: token,
		Hash:  HashToken(token),
	}, nil
}

// GenerateNumericCode returns a uniformly random code of exactly digits
// decimal digits with no leading zero, e.g. 100000-999999 for 6 digits.
func GenerateNumericCode(digits ...int) (string, error) {
	if len(digits) > 1 {
		return "", ErrTooManyArgs
	}

	n := VerificationCodeDigits
	if len(digits) > 0 {
		n = digits[0]
	}
	if n < 1 || n > 18 {
		return "", ErrInvalidDigits
	}

	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n-1)), nil)
	if n == 1 {
		low.SetInt64(0)
	}
	high := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	span := new(big.Int).Sub(high, low)

	r, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}

	return r.Add(r, low).String(), nil
}

// HashToken is the SHA-256 hex digest stored in place of a reset token.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
