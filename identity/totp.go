package identity

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
)

const totpPeriod = 30

// ErrInvalidSecret is returned for secrets that fail base32 validation or
// code computation. Callers report it to the user; it never escalates.
var ErrInvalidSecret = errors.New("identity: invalid 2fa secret")

var secretAlphabet = regexp.MustCompile(`^[A-Z2-7]+$`)

// OneTimeCode is a computed TOTP code and its remaining validity.
type OneTimeCode struct {
	Code             string
	SecondsRemaining int
}

// NormalizeSecret strips spaces and uppercases a user-supplied secret.
func NormalizeSecret(secret string) string {
	return strings.ToUpper(strings.ReplaceAll(secret, " ", ""))
}

// ValidateSecret reports whether the input normalizes to a plausible base32
// TOTP secret: at least 16 characters over A-Z2-7.
func ValidateSecret(secret string) bool {
	cleaned := NormalizeSecret(secret)
	if len(cleaned) < 16 {
		return false
	}
	return secretAlphabet.MatchString(cleaned)
}

// Code computes the current 30-second TOTP code for the secret.
func Code(secret string) (OneTimeCode, error) {
	return CodeAt(secret, time.Now())
}

// CodeAt computes the TOTP code valid at the given instant.
func CodeAt(secret string, at time.Time) (OneTimeCode, error) {
	normalized := NormalizeSecret(secret)
	code, err := totp.GenerateCode(normalized, at)
	if err != nil {
		return OneTimeCode{}, ErrInvalidSecret
	}
	return OneTimeCode{
		Code:             code,
		SecondsRemaining: totpPeriod - int(at.Unix()%totpPeriod),
	}, nil
}
