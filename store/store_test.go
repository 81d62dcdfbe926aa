package store

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := Open(path, discardLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s, path
}

func TestOpenCreatesDefaults(t *testing.T) {
	t.Parallel()

	s, path := openTemp(t)
	data := s.Snapshot()
	if len(data.Categories) != 0 || len(data.Blacklist) != 0 {
		t.Fatalf("Snapshot() = %+v, want empty defaults", data)
	}
	if data.Schedule.Timezone != DefaultTimezone {
		t.Fatalf("Schedule.Timezone = %q, want %q", data.Schedule.Timezone, DefaultTimezone)
	}
	if data.Schedule.JobID != DefaultJobID {
		t.Fatalf("Schedule.JobID = %q, want %q", data.Schedule.JobID, DefaultJobID)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("defaults were not persisted: %v", err)
	}
}

func TestOpenHealsMissingKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.json")
	doc := `{"buttons": [], "users": {}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s, err := Open(path, discardLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	data := s.Snapshot()
	if data.Blacklist == nil || len(data.Blacklist) != 0 {
		t.Fatalf("Blacklist = %v, want empty", data.Blacklist)
	}

	// The repair must have been written back.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var onDisk map[string]json.RawMessage
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, ok := onDisk["blacklist"]; !ok {
		t.Fatalf("healed document missing blacklist key: %s", raw)
	}
}

func TestOpenHealsWrongType(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.json")
	doc := `{"buttons": [], "users": [], "blacklist": {}, "number_progress": 5}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s, err := Open(path, discardLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	data := s.Snapshot()
	if len(data.Users) != 0 || len(data.Blacklist) != 0 || len(data.Cursors) != 0 {
		t.Fatalf("wrong-typed keys not reset: %+v", data)
	}
}

func TestOpenUpgradesLegacyCategories(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.json")
	doc := `{"buttons": ["OTT", {"name": "Bank", "sub_buttons": ["City"]}, {"name": "Old"}, 42]}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s, err := Open(path, discardLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	data := s.Snapshot()
	want := []Category{
		{Name: "OTT", Subcategories: []string{}},
		{Name: "Bank", Subcategories: []string{"City"}},
		{Name: "Old", Subcategories: []string{}},
	}
	if len(data.Categories) != len(want) {
		t.Fatalf("Categories = %+v, want %+v", data.Categories, want)
	}
	for i := range want {
		if data.Categories[i].Name != want[i].Name {
			t.Fatalf("Categories[%d].Name = %q, want %q", i, data.Categories[i].Name, want[i].Name)
		}
		if len(data.Categories[i].Subcategories) != len(want[i].Subcategories) {
			t.Fatalf("Categories[%d].Subcategories = %v, want %v", i, data.Categories[i].Subcategories, want[i].Subcategories)
		}
	}

	// The upgrade is persisted once: reopening must not rewrite the file.
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if _, err := Open(path, discardLogger()); err != nil {
		t.Fatalf("Open() second error = %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("document rewritten on clean reopen")
	}
}

func TestOpenReplacesCorruptDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	s, err := Open(path, discardLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := s.Snapshot(); len(got.Categories) != 0 {
		t.Fatalf("Snapshot() = %+v, want defaults", got)
	}
}

func TestUpdatePersists(t *testing.T) {
	t.Parallel()

	s, path := openTemp(t)
	err := s.Update(func(d *Data) error {
		d.Categories = append(d.Categories, Category{Name: "OTT", Subcategories: []string{"Netflix"}})
		d.SetCursor("OTT", "Netflix", 3)
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	reopened, err := Open(path, discardLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	data := reopened.Snapshot()
	if got := data.Cursor("OTT", "Netflix"); got != 3 {
		t.Fatalf("Cursor() = %d, want 3", got)
	}
}

func TestUpdateErrorDiscardsChanges(t *testing.T) {
	t.Parallel()

	s, _ := openTemp(t)
	wantErr := os.ErrPermission
	err := s.Update(func(d *Data) error {
		d.OTPGroupLink = "https://example.com"
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("Update() error = %v, want %v", err, wantErr)
	}
	if got := s.Snapshot().OTPGroupLink; got != "" {
		t.Fatalf("OTPGroupLink = %q, want empty after failed update", got)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	t.Parallel()

	s, _ := openTemp(t)
	if err := s.Update(func(d *Data) error {
		d.Secrets["1"] = "AAAA"
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	snap := s.Snapshot()
	snap.Secrets["1"] = "BBBB"
	if got := s.Snapshot().Secrets["1"]; got != "AAAA" {
		t.Fatalf("Secrets[1] = %q, want AAAA", got)
	}
}

func TestSnapshotValueHelpers(t *testing.T) {
	t.Parallel()

	s, _ := openTemp(t)
	if err := s.Update(func(d *Data) error {
		d.Categories = append(d.Categories, Category{Name: "WhatsApp", Subcategories: []string{"US"}})
		d.SetCursor("WhatsApp", "US", 2)
		d.AddBlacklist(7)
		d.SubmissionCategories = append(d.SubmissionCategories, "Netflix")
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// The read helpers work directly on the Snapshot return value.
	if s.Snapshot().FindCategory("WhatsApp") == nil {
		t.Fatal("FindCategory() = nil, want category")
	}
	if got := s.Snapshot().Cursor("WhatsApp", "US"); got != 2 {
		t.Fatalf("Cursor() = %d, want 2", got)
	}
	if !s.Snapshot().HasBlacklisted(7) {
		t.Fatal("HasBlacklisted(7) = false, want true")
	}
	if !s.Snapshot().HasSubmissionCategory("Netflix") {
		t.Fatal("HasSubmissionCategory() = false, want true")
	}
	if got := s.Snapshot().CategoryNames(); len(got) != 1 || got[0] != "WhatsApp" {
		t.Fatalf("CategoryNames() = %q", got)
	}
}

func TestBlacklistHelpers(t *testing.T) {
	t.Parallel()

	s, _ := openTemp(t)
	if err := s.Update(func(d *Data) error {
		if !d.AddBlacklist(42) {
			t.Errorf("AddBlacklist(42) = false, want true")
		}
		if d.AddBlacklist(42) {
			t.Errorf("AddBlacklist(42) twice = true, want false")
		}
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !s.IsBlacklisted(42) {
		t.Fatalf("IsBlacklisted(42) = false, want true")
	}
	if err := s.Update(func(d *Data) error {
		if !d.RemoveBlacklist(42) {
			t.Errorf("RemoveBlacklist(42) = false, want true")
		}
		if d.RemoveBlacklist(42) {
			t.Errorf("RemoveBlacklist(42) twice = true, want false")
		}
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if s.IsBlacklisted(42) {
		t.Fatalf("IsBlacklisted(42) = true, want false")
	}
}

func TestCursorRemovalHelpers(t *testing.T) {
	t.Parallel()

	s, _ := openTemp(t)
	if err := s.Update(func(d *Data) error {
		d.SetCursor("OTT", "Netflix", 1)
		d.SetCursor("OTT", "Prime", 2)
		d.SetCursor("Bank", "City", 3)
		d.DropCursor("OTT", "Netflix")
		d.DropCategoryCursors("Bank")
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	data := s.Snapshot()
	if got := data.Cursor("OTT", "Netflix"); got != 0 {
		t.Fatalf("Cursor(OTT, Netflix) = %d, want 0", got)
	}
	if got := data.Cursor("OTT", "Prime"); got != 2 {
		t.Fatalf("Cursor(OTT, Prime) = %d, want 2", got)
	}
	if _, ok := data.Cursors["Bank"]; ok {
		t.Fatalf("Cursors[Bank] still present")
	}
}
