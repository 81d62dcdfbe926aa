// Package identity provides the stateless generators behind the "Fake Name"
// and "Get 2FA" features: pseudo-random display identities and time-based
// one-time codes computed from a user-supplied shared secret.
package identity

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-faker/faker/v4"
)

// Gender selects the first-name pool for a generated identity.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Profile is one synthesized display identity.
type Profile struct {
	FirstName string
	LastName  string
	Username  string
	Password  string
}

const (
	passwordCoreLength = 12

	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*()-_=+"
)

// Fake synthesizes a random identity. The username is the lowercased name
// pair with a random two-digit suffix; the password is a 12-character random
// core with the current day of month appended, so it rotates daily.
func Fake(gender Gender, now time.Time) (Profile, error) {
	var first string
	switch gender {
	case Male:
		first = faker.FirstNameMale()
	case Female:
		first = faker.FirstNameFemale()
	default:
		return Profile{}, fmt.Errorf("identity: unknown gender %q", gender)
	}
	last := faker.LastName()

	suffix, err := randomInt(10, 99)
	if err != nil {
		return Profile{}, err
	}
	username := fmt.Sprintf("%s%s%d", flatten(first), flatten(last), suffix)

	core, err := randomPassword(passwordCoreLength)
	if err != nil {
		return Profile{}, err
	}

	return Profile{
		FirstName: first,
		LastName:  last,
		Username:  username,
		Password:  fmt.Sprintf("%s%s", core, now.Format("02")),
	}, nil
}

func flatten(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}

// randomPassword builds a random string that contains at least one lower,
// upper, digit and special character.
func randomPassword(length int) (string, error) {
	if length < 4 {
		return "", fmt.Errorf("identity: password length %d too short", length)
	}
	all := lowerChars + upperChars + digitChars + specialChars
	out := make([]byte, 0, length)

	for _, pool := range []string{lowerChars, upperChars, digitChars, specialChars} {
		ch, err := randomFrom(pool)
		if err != nil {
			return "", err
		}
		out = append(out, ch)
	}
	for len(out) < length {
		ch, err := randomFrom(all)
		if err != nil {
			return "", err
		}
		out = append(out, ch)
	}

	// Fisher-Yates so the guaranteed classes are not always in front.
	for i := len(out) - 1; i > 0; i-- {
		j, err := randomInt(0, i)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

func randomFrom(pool string) (byte, error) {
	idx, err := randomInt(0, len(pool)-1)
	if err != nil {
		return 0, err
	}
	return pool[idx], nil
}

func randomInt(min, max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
	if err != nil {
		return 0, fmt.Errorf("identity: random source: %w", err)
	}
	return min + int(n.Int64()), nil
}
