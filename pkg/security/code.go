package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strconv"
)

const (
	verificationCodeMin = 100000
	verificationCodeMax = 999999
)

// GenerateVerificationCode returns a 6-digit code drawn uniformly from
// [100000, 999999]. Codes are scoped by username, not globally unique.
func GenerateVerificationCode() (string, error) {
	span := big.NewInt(verificationCodeMax - verificationCodeMin + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+verificationCodeMin, 10), nil
}

// CodesMatch compares a stored code with a submitted one in constant time.
func CodesMatch(stored *string, submitted string) bool {
	if stored == nil || *stored == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(submitted)) == 1
}
