package dispense

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shihab98bc/Render-Bot/store"
)

func newTestDistributor(t *testing.T, opts ...Option) (*Distributor, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "data.json"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	uploads := filepath.Join(dir, "uploads")
	if err := os.MkdirAll(uploads, 0o700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	d := New(st, uploads, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
	return d, uploads
}

func writeNumbers(t *testing.T, uploads, category, sub string, content string) {
	t.Helper()
	path := filepath.Join(uploads, category+"_"+sub+".txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestDispenseServesLinesInOrderExactlyOnce(t *testing.T) {
	t.Parallel()

	d, uploads := newTestDistributor(t, WithCooldown(0))
	writeNumbers(t, uploads, "OTT", "Netflix", "+111\n +222 \n+333\n")

	want := []string{"+111", "+222", "+333"}
	for i, w := range want {
		got, err := d.Dispense("OTT", "Netflix")
		if err != nil {
			t.Fatalf("Dispense() #%d error = %v", i, err)
		}
		if got != w {
			t.Fatalf("Dispense() #%d = %q, want %q", i, got, w)
		}
	}
	if _, err := d.Dispense("OTT", "Netflix"); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Dispense() after exhaustion error = %v, want ErrEmpty", err)
	}
}

func TestDispenseCooldown(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	d, uploads := newTestDistributor(t, WithClock(clock), WithCooldown(10*time.Second))
	writeNumbers(t, uploads, "OTT", "Netflix", "+111\n+222\n")
	writeNumbers(t, uploads, "Bank", "City", "+900\n")

	if _, err := d.Dispense("OTT", "Netflix"); err != nil {
		t.Fatalf("Dispense() first error = %v", err)
	}

	// Second call inside the window fails, for any category, and advances
	// no cursor.
	now = now.Add(5 * time.Second)
	if _, err := d.Dispense("Bank", "City"); !errors.Is(err, ErrCooldown) {
		t.Fatalf("Dispense() inside window error = %v, want ErrCooldown", err)
	}

	now = now.Add(5 * time.Second)
	got, err := d.Dispense("Bank", "City")
	if err != nil {
		t.Fatalf("Dispense() after window error = %v", err)
	}
	if got != "+900" {
		t.Fatalf("Dispense() = %q, want %q (cursor must not have advanced)", got, "+900")
	}
}

func TestDispenseCooldownFailureDoesNotAdvanceCursor(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	d, uploads := newTestDistributor(t, WithClock(clock))
	writeNumbers(t, uploads, "OTT", "Netflix", "+111\n+222\n")

	if _, err := d.Dispense("OTT", "Netflix"); err != nil {
		t.Fatalf("Dispense() error = %v", err)
	}
	if _, err := d.Dispense("OTT", "Netflix"); !errors.Is(err, ErrCooldown) {
		t.Fatalf("Dispense() error = %v, want ErrCooldown", err)
	}
	now = now.Add(DefaultCooldown)
	got, err := d.Dispense("OTT", "Netflix")
	if err != nil {
		t.Fatalf("Dispense() error = %v", err)
	}
	if got != "+222" {
		t.Fatalf("Dispense() = %q, want +222", got)
	}
}

func TestDispenseNotReady(t *testing.T) {
	t.Parallel()

	d, _ := newTestDistributor(t, WithCooldown(0))
	if _, err := d.Dispense("OTT", "Nowhere"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Dispense() error = %v, want ErrNotReady", err)
	}
}

func TestDispenseEmptyFile(t *testing.T) {
	t.Parallel()

	d, uploads := newTestDistributor(t, WithCooldown(0))
	writeNumbers(t, uploads, "OTT", "Netflix", "")
	if _, err := d.Dispense("OTT", "Netflix"); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Dispense() error = %v, want ErrEmpty", err)
	}
}

func TestDispensePersistsCursor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "data.json"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	uploads := filepath.Join(dir, "uploads")
	if err := os.MkdirAll(uploads, 0o700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	d := New(st, uploads, slog.New(slog.NewTextHandler(io.Discard, nil)), WithCooldown(0))
	writeNumbers(t, uploads, "OTT", "Netflix", "+111\n+222\n")

	if _, err := d.Dispense("OTT", "Netflix"); err != nil {
		t.Fatalf("Dispense() error = %v", err)
	}

	// A distributor built over a reopened store continues from the cursor.
	st2, err := store.Open(filepath.Join(dir, "data.json"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("store.Open() reopen error = %v", err)
	}
	d2 := New(st2, uploads, slog.New(slog.NewTextHandler(io.Discard, nil)), WithCooldown(0))
	got, err := d2.Dispense("OTT", "Netflix")
	if err != nil {
		t.Fatalf("Dispense() error = %v", err)
	}
	if got != "+222" {
		t.Fatalf("Dispense() = %q, want +222", got)
	}
}

func TestSplitLines(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"single no newline", "+111", 1},
		{"trailing newline", "+111\n+222\n", 2},
		{"crlf", "+111\r\n+222\r\n", 2},
		{"interior blank keeps index", "+111\n\n+333\n", 3},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := splitLines(tc.in); len(got) != tc.want {
				t.Fatalf("splitLines(%q) len = %d, want %d", tc.in, len(got), tc.want)
			}
		})
	}
}
