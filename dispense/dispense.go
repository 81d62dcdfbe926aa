// Package dispense hands out the next unused line of a category's number
// file. A single distributor instance serializes every request and enforces
// one process-wide cooldown between successful dispenses, so no two requests
// can ever observe the same line.
package dispense

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shihab98bc/Render-Bot/internal/fsstore"
	"github.com/shihab98bc/Render-Bot/store"
)

const DefaultCooldown = 10 * time.Second

var (
	// ErrCooldown means the cooldown window since the last successful
	// dispense has not elapsed yet.
	ErrCooldown = errors.New("dispense: cooldown active")
	// ErrNotReady means no number file has been uploaded for the pair.
	ErrNotReady = errors.New("dispense: numbers not uploaded")
	// ErrEmpty means every line of the file has already been served.
	ErrEmpty = errors.New("dispense: all numbers distributed")
)

// Distributor serves lines from uploaded number files. Construct once and
// share; the zero value is not usable.
type Distributor struct {
	store      *store.Store
	uploadsDir string
	cooldown   time.Duration
	now        func() time.Time
	logger     *slog.Logger

	mu   sync.Mutex
	last time.Time
}

// Option configures a Distributor.
type Option func(*Distributor)

// WithCooldown overrides the cooldown window. Zero disables it.
func WithCooldown(d time.Duration) Option {
	return func(dist *Distributor) { dist.cooldown = d }
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(dist *Distributor) { dist.now = now }
}

func New(st *store.Store, uploadsDir string, logger *slog.Logger, opts ...Option) *Distributor {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Distributor{
		store:      st,
		uploadsDir: uploadsDir,
		cooldown:   DefaultCooldown,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Cooldown returns the configured cooldown window.
func (d *Distributor) Cooldown() time.Duration {
	return d.cooldown
}

// FilePath returns the backing number file for a (category, subcategory)
// pair.
func (d *Distributor) FilePath(category, sub string) string {
	return filepath.Join(d.uploadsDir, fmt.Sprintf("%s_%s.txt", category, sub))
}

// Dispense returns the next unserved line for the pair. The cursor advance
// and the cooldown timestamp are both updated before the lock is released.
func (d *Distributor) Dispense(category, sub string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if d.cooldown > 0 && !d.last.IsZero() && now.Sub(d.last) < d.cooldown {
		return "", ErrCooldown
	}

	path := d.FilePath(category, sub)
	content, ok, err := fsstore.ReadText(path)
	if err != nil {
		return "", fmt.Errorf("dispense read %s: %w", path, err)
	}
	if !ok {
		return "", ErrNotReady
	}

	lines := splitLines(content)
	cursor := d.store.Snapshot().Cursor(category, sub)
	if cursor >= len(lines) {
		return "", ErrEmpty
	}

	number := strings.TrimSpace(lines[cursor])
	if err := d.store.Update(func(data *store.Data) error {
		data.SetCursor(category, sub, cursor+1)
		return nil
	}); err != nil {
		return "", err
	}
	d.last = now
	d.logger.Info("dispensed number",
		"category", category, "subcategory", sub, "cursor", cursor+1)
	return number, nil
}

// splitLines mirrors line-oriented reading: a trailing newline does not
// produce a phantom empty line, interior empty lines keep their index.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
