package telegramutil

import "testing"

func TestEscapeMarkdownV2(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"dot", "v1.2", "v1\\.2"},
		{"punctuation", "a-b(c)!", "a\\-b\\(c\\)\\!"},
		{"backslash", `a\b`, `a\\b`},
		{"empty", "", ""},
		{"unicode untouched", "নাম্বার", "নাম্বার"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := EscapeMarkdownV2(tc.in); got != tc.want {
				t.Fatalf("EscapeMarkdownV2(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestBoldCode(t *testing.T) {
	t.Parallel()

	if got := Bold("x"); got != "*x*" {
		t.Fatalf("Bold() = %q", got)
	}
	if got := Code("x"); got != "`x`" {
		t.Fatalf("Code() = %q", got)
	}
}
