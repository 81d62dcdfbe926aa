// Package store owns the bot's single persisted state document: number
// categories and their distribution cursors, the user registry, the
// blacklist, saved 2FA secrets, file submission categories, the OTP group
// link and the report delivery schedule. The document is read, mutated and
// written as a whole; all access is serialized through the store's mutex so
// two overlapping handlers cannot lose each other's writes.
package store

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/shihab98bc/Render-Bot/internal/fsstore"
)

const (
	DefaultTimezone = "Asia/Dhaka"
	DefaultJobID    = "daily_merge_job"
)

// Category is one top-level number category with its subcategories. The
// JSON keys match the historical document shape.
type Category struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"sub_buttons"`
}

// User is a registered chat user, recorded on first contact.
type User struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// Schedule describes the daily report delivery job. An empty Time means no
// job is scheduled.
type Schedule struct {
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
	JobID    string `json:"job_id"`
}

// Data is the whole persisted document.
type Data struct {
	Categories           []Category                `json:"buttons"`
	Users                map[string]User           `json:"users"`
	Cursors              map[string]map[string]int `json:"number_progress"`
	Blacklist            []int64                   `json:"blacklist"`
	Secrets              map[string]string         `json:"user_2fa_secrets"`
	OTPGroupLink         string                    `json:"otp_group_link"`
	SubmissionCategories []string                  `json:"file_submission_buttons"`
	Schedule             Schedule                  `json:"delivery_schedule"`
}

func defaults() Data {
	return Data{
		Categories:           []Category{},
		Users:                map[string]User{},
		Cursors:              map[string]map[string]int{},
		Blacklist:            []int64{},
		Secrets:              map[string]string{},
		OTPGroupLink:         "",
		SubmissionCategories: []string{},
		Schedule: Schedule{
			Time:     "",
			Timezone: DefaultTimezone,
			JobID:    DefaultJobID,
		},
	}
}

// Store serializes every read and write of the document.
type Store struct {
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	data Data
}

// Open loads the document at path, repairing or recreating it as needed.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{path: path, logger: logger}
	data, err := loadAndHeal(path, logger)
	if err != nil {
		return nil, fmt.Errorf("store open %s: %w", path, err)
	}
	s.data = data
	return s, nil
}

// Snapshot returns an independent copy of the current document.
func (s *Store) Snapshot() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.clone()
}

// Update applies fn to the document under the store lock and persists the
// result atomically. If fn returns an error nothing is saved.
func (s *Store) Update(fn func(*Data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data.clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := fsstore.WriteJSONAtomic(s.path, next, fsstore.FileOptions{}); err != nil {
		return fmt.Errorf("store save %s: %w", s.path, err)
	}
	s.data = next
	return nil
}

// IsBlacklisted reports whether the user is blocked.
func (s *Store) IsBlacklisted(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.data.Blacklist {
		if id == userID {
			return true
		}
	}
	return false
}

// cloneSlice copies a slice preserving nil-ness, so an empty-but-present
// document key keeps persisting as [] rather than null.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func (d Data) clone() Data {
	out := d
	out.Categories = make([]Category, len(d.Categories))
	for i, c := range d.Categories {
		out.Categories[i] = Category{
			Name:          c.Name,
			Subcategories: cloneSlice(c.Subcategories),
		}
	}
	out.Users = make(map[string]User, len(d.Users))
	for k, v := range d.Users {
		out.Users[k] = v
	}
	out.Cursors = make(map[string]map[string]int, len(d.Cursors))
	for k, v := range d.Cursors {
		inner := make(map[string]int, len(v))
		for sk, sv := range v {
			inner[sk] = sv
		}
		out.Cursors[k] = inner
	}
	out.Blacklist = cloneSlice(d.Blacklist)
	out.Secrets = make(map[string]string, len(d.Secrets))
	for k, v := range d.Secrets {
		out.Secrets[k] = v
	}
	out.SubmissionCategories = cloneSlice(d.SubmissionCategories)
	return out
}

// FindCategory returns a pointer into d's category slice, or nil.
func (d Data) FindCategory(name string) *Category {
	for i := range d.Categories {
		if d.Categories[i].Name == name {
			return &d.Categories[i]
		}
	}
	return nil
}

// CategoryNames returns the ordered top-level category names.
func (d Data) CategoryNames() []string {
	names := make([]string, 0, len(d.Categories))
	for _, c := range d.Categories {
		names = append(names, c.Name)
	}
	return names
}

// Cursor returns the next unserved line index for the pair, defaulting to 0.
func (d Data) Cursor(category, sub string) int {
	if inner, ok := d.Cursors[category]; ok {
		return inner[sub]
	}
	return 0
}

// SetCursor records the next unserved line index for the pair.
func (d *Data) SetCursor(category, sub string, index int) {
	if d.Cursors == nil {
		d.Cursors = map[string]map[string]int{}
	}
	if d.Cursors[category] == nil {
		d.Cursors[category] = map[string]int{}
	}
	d.Cursors[category][sub] = index
}

// DropCategoryCursors removes every cursor entry under a main category.
func (d *Data) DropCategoryCursors(category string) {
	delete(d.Cursors, category)
}

// DropCursor removes the cursor entry for a single subcategory.
func (d *Data) DropCursor(category, sub string) {
	if inner, ok := d.Cursors[category]; ok {
		delete(inner, sub)
	}
}

// HasBlacklisted reports whether the user ID is present in the blacklist.
func (d Data) HasBlacklisted(userID int64) bool {
	for _, id := range d.Blacklist {
		if id == userID {
			return true
		}
	}
	return false
}

// AddBlacklist inserts the user ID if absent and reports whether it was added.
func (d *Data) AddBlacklist(userID int64) bool {
	if d.HasBlacklisted(userID) {
		return false
	}
	d.Blacklist = append(d.Blacklist, userID)
	return true
}

// RemoveBlacklist deletes the user ID if present and reports whether it was
// removed.
func (d *Data) RemoveBlacklist(userID int64) bool {
	for i, id := range d.Blacklist {
		if id == userID {
			d.Blacklist = append(d.Blacklist[:i], d.Blacklist[i+1:]...)
			return true
		}
	}
	return false
}

// HasSubmissionCategory reports whether name is a configured submission
// category.
func (d Data) HasSubmissionCategory(name string) bool {
	for _, c := range d.SubmissionCategories {
		if c == name {
			return true
		}
	}
	return false
}
