package identity

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFakeShape(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)
	for _, gender := range []Gender{Male, Female} {
		p, err := Fake(gender, now)
		if err != nil {
			t.Fatalf("Fake(%v) error = %v", gender, err)
		}
		if p.FirstName == "" || p.LastName == "" {
			t.Fatalf("Fake(%v) = %+v, want non-empty names", gender, p)
		}
		if p.Username != strings.ToLower(p.Username) {
			t.Fatalf("Username = %q, want lowercase", p.Username)
		}
		base := flatten(p.FirstName) + flatten(p.LastName)
		if !strings.HasPrefix(p.Username, base) {
			t.Fatalf("Username = %q, want prefix %q", p.Username, base)
		}
		suffix := strings.TrimPrefix(p.Username, base)
		if len(suffix) != 2 {
			t.Fatalf("Username suffix = %q, want two digits", suffix)
		}
		// 12-char core plus day-of-month suffix.
		if len(p.Password) != 14 {
			t.Fatalf("Password = %q, len = %d, want 14", p.Password, len(p.Password))
		}
		if !strings.HasSuffix(p.Password, "07") {
			t.Fatalf("Password = %q, want day-of-month suffix 07", p.Password)
		}
	}
}

func TestFakeUnknownGender(t *testing.T) {
	t.Parallel()

	if _, err := Fake(Gender("other"), time.Now()); err == nil {
		t.Fatalf("Fake() error = nil, want error")
	}
}

func TestRandomPasswordClasses(t *testing.T) {
	t.Parallel()

	for i := 0; i < 20; i++ {
		pw, err := randomPassword(passwordCoreLength)
		if err != nil {
			t.Fatalf("randomPassword() error = %v", err)
		}
		if len(pw) != passwordCoreLength {
			t.Fatalf("randomPassword() len = %d, want %d", len(pw), passwordCoreLength)
		}
		if !strings.ContainsAny(pw, lowerChars) ||
			!strings.ContainsAny(pw, upperChars) ||
			!strings.ContainsAny(pw, digitChars) ||
			!strings.ContainsAny(pw, specialChars) {
			t.Fatalf("randomPassword() = %q, missing a character class", pw)
		}
	}
}

func TestValidateSecret(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want bool
	}{
		{"valid", "GEZDGNBVGEZDGNBV", true},
		{"valid with spaces", "GEZD GNBV GEZD GNBV", true},
		{"valid lowercase", "gezdgnbvgezdgnbv", true},
		{"too short", "GEZDGNBV", false},
		{"spaces do not pad length", "GEZDGNBV        ", false},
		{"bad alphabet digit 1", "GEZDGNBVGEZDGNB1", false},
		{"bad alphabet digit 8", "GEZDGNBVGEZDGNB8", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ValidateSecret(tc.in); got != tc.want {
				t.Fatalf("ValidateSecret(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestCodeAtKnownVector(t *testing.T) {
	t.Parallel()

	// RFC 6238 SHA-1 key "12345678901234567890" in base32, T=59s
	// (counter 1): 94287082 -> 287082 for 6 digits. The space exercises
	// normalization.
	secret := "GEZDGNBVGY3TQOJQ GEZDGNBVGY3TQOJQ"
	got, err := CodeAt(secret, time.Unix(59, 0))
	if err != nil {
		t.Fatalf("CodeAt() error = %v", err)
	}
	if got.Code != "287082" {
		t.Fatalf("CodeAt() code = %q, want 287082", got.Code)
	}
	if got.SecondsRemaining != 1 {
		t.Fatalf("CodeAt() seconds = %d, want 1", got.SecondsRemaining)
	}
}

func TestCodeAtDeterministicWithinPeriod(t *testing.T) {
	t.Parallel()

	secret := "GEZDGNBVGEZDGNBV"
	a, err := CodeAt(secret, time.Unix(1030, 0))
	if err != nil {
		t.Fatalf("CodeAt() error = %v", err)
	}
	b, err := CodeAt(secret, time.Unix(1045, 0))
	if err != nil {
		t.Fatalf("CodeAt() error = %v", err)
	}
	if a.Code != b.Code {
		t.Fatalf("codes differ within one period: %q vs %q", a.Code, b.Code)
	}
	if a.SecondsRemaining != 30-(1030%30) {
		t.Fatalf("SecondsRemaining = %d, want %d", a.SecondsRemaining, 30-(1030%30))
	}
}

func TestCodeAtPeriodBoundary(t *testing.T) {
	t.Parallel()

	secret := "GEZDGNBVGEZDGNBV"
	boundary, err := CodeAt(secret, time.Unix(1050, 0))
	if err != nil {
		t.Fatalf("CodeAt() error = %v", err)
	}
	if boundary.SecondsRemaining != 30 {
		t.Fatalf("SecondsRemaining at boundary = %d, want 30", boundary.SecondsRemaining)
	}
}

func TestCodeAtInvalidSecret(t *testing.T) {
	t.Parallel()

	_, err := CodeAt("not base32 at all!!", time.Unix(59, 0))
	if !errors.Is(err, ErrInvalidSecret) {
		t.Fatalf("CodeAt() error = %v, want ErrInvalidSecret", err)
	}
}
