package store

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/shihab98bc/Render-Bot/internal/fsstore"
)

// loadAndHeal reads the document and repairs structural drift: missing or
// wrong-typed keys are reset to defaults, legacy bare-string category
// entries are upgraded to the structured shape, and an unreadable document
// is replaced wholesale. Repairs are persisted exactly once.
func loadAndHeal(path string, logger *slog.Logger) (Data, error) {
	def := defaults()

	raw, err := os.ReadFile(path)
	if err != nil || len(raw) == 0 {
		if err != nil && !os.IsNotExist(err) {
			return Data{}, err
		}
		logger.Info("state document missing, creating a new one", "path", path)
		if err := fsstore.WriteJSONAtomic(path, def, fsstore.FileOptions{}); err != nil {
			return Data{}, err
		}
		return def, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		logger.Warn("state document corrupt, replacing with defaults", "path", path, "error", err)
		if err := fsstore.WriteJSONAtomic(path, def, fsstore.FileOptions{}); err != nil {
			return Data{}, err
		}
		return def, nil
	}

	data := def
	fixed := false

	heal := func(key string, out any, reset func()) {
		msg, ok := doc[key]
		if !ok {
			logger.Warn("state key missing, resetting to default", "key", key)
			fixed = true
			return
		}
		if err := json.Unmarshal(msg, out); err != nil {
			logger.Warn("state key has wrong type, resetting to default", "key", key, "error", err)
			reset()
			fixed = true
		}
	}

	categories, catFixed := healCategories(doc["buttons"], logger)
	data.Categories = categories
	fixed = fixed || catFixed

	heal("users", &data.Users, func() { data.Users = defaults().Users })
	heal("number_progress", &data.Cursors, func() { data.Cursors = defaults().Cursors })
	heal("blacklist", &data.Blacklist, func() { data.Blacklist = defaults().Blacklist })
	heal("user_2fa_secrets", &data.Secrets, func() { data.Secrets = defaults().Secrets })
	heal("otp_group_link", &data.OTPGroupLink, func() { data.OTPGroupLink = "" })
	heal("file_submission_buttons", &data.SubmissionCategories, func() {
		data.SubmissionCategories = defaults().SubmissionCategories
	})
	heal("delivery_schedule", &data.Schedule, func() { data.Schedule = defaults().Schedule })

	// JSON null decodes to nil; normalize so Update callers never nil-check.
	if data.Users == nil {
		data.Users = map[string]User{}
	}
	if data.Cursors == nil {
		data.Cursors = map[string]map[string]int{}
	}
	if data.Secrets == nil {
		data.Secrets = map[string]string{}
	}
	if data.Blacklist == nil {
		data.Blacklist = []int64{}
	}
	if data.SubmissionCategories == nil {
		data.SubmissionCategories = []string{}
	}
	if data.Schedule.Timezone == "" {
		data.Schedule.Timezone = DefaultTimezone
		fixed = true
	}
	if data.Schedule.JobID == "" {
		data.Schedule.JobID = DefaultJobID
		fixed = true
	}

	if fixed {
		logger.Info("repaired state document, saving changes", "path", path)
		if err := fsstore.WriteJSONAtomic(path, data, fsstore.FileOptions{}); err != nil {
			return Data{}, err
		}
	}
	return data, nil
}

// healCategories accepts both the structured category shape and the legacy
// bare-string list, upgrading the latter. Invalid entries are dropped.
func healCategories(msg json.RawMessage, logger *slog.Logger) ([]Category, bool) {
	if len(msg) == 0 {
		logger.Warn("state key missing, resetting to default", "key", "buttons")
		return []Category{}, true
	}

	var items []json.RawMessage
	if err := json.Unmarshal(msg, &items); err != nil {
		logger.Warn("state key has wrong type, resetting to default", "key", "buttons", "error", err)
		return []Category{}, true
	}

	out := make([]Category, 0, len(items))
	fixed := false
	for _, item := range items {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			logger.Info("upgrading legacy category entry", "name", name)
			out = append(out, Category{Name: name, Subcategories: []string{}})
			fixed = true
			continue
		}
		var cat Category
		if err := json.Unmarshal(item, &cat); err == nil && cat.Name != "" {
			if cat.Subcategories == nil {
				cat.Subcategories = []string{}
				fixed = true
			}
			out = append(out, cat)
			continue
		}
		logger.Warn("dropping invalid category entry", "entry", string(item))
		fixed = true
	}
	return out, fixed
}
