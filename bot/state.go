package bot

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/shihab98bc/Render-Bot/internal/fsstore"
)

// State tags the pending action that decides how a user's next input is
// interpreted. The empty state means top-level menu dispatch.
type State string

const (
	StateNone State = ""

	// User flows.
	StateAwaitMainCategory       State = "awaiting_main_category"
	StateAwaitNumberCategory     State = "awaiting_number_category"
	StateAwaitGender             State = "awaiting_gender_for_fakename"
	StateAwait2FASecret          State = "awaiting_2fa_secret"
	StateAwaitSubmissionCategory State = "awaiting_file_submission_category"
	StateAwaitXLSXUpload         State = "awaiting_xlsx_upload"

	// Admin flows.
	StateAwaitBroadcast            State = "awaiting_broadcast_message"
	StateAwaitAddType              State = "awaiting_add_type"
	StateAwaitRemoveType           State = "awaiting_remove_type"
	StateAwaitMainButtonName       State = "awaiting_main_button_name"
	StateAwaitMainForSubAdd        State = "awaiting_main_for_sub_add"
	StateAwaitSubButtonName        State = "awaiting_sub_button_name"
	StateAwaitMainButtonRemove     State = "awaiting_main_button_to_remove"
	StateAwaitMainForSubRemove     State = "awaiting_main_for_sub_remove"
	StateAwaitSubButtonRemove      State = "awaiting_sub_button_to_remove"
	StateAwaitMainForUpload        State = "awaiting_main_for_upload"
	StateAwaitUploadSubChoice      State = "awaiting_upload_button_choice"
	StateAwaitTxtUpload            State = "awaiting_txt_file_upload"
	StateAwaitUserToManage         State = "awaiting_user_to_manage"
	StateAwaitUserManageAction     State = "awaiting_user_manage_action"
	StateAwaitOTPLink              State = "awaiting_otp_link"
	StateAwaitSubmissionNameAdd    State = "awaiting_file_name_add"
	StateAwaitSubmissionNameRemove State = "awaiting_file_name_to_remove"
	StateAwaitDeliveryTime         State = "awaiting_delivery_time"
)

// Session is the per-user ephemeral flow context. Each flow reads only the
// fields it set earlier; handlers treat a missing selection as stale context
// and reset to the top menu.
type Session struct {
	State              State  `json:"state,omitempty"`
	Category           string `json:"category,omitempty"`
	Subcategory        string `json:"subcategory,omitempty"`
	SubmissionCategory string `json:"submission_category,omitempty"`
	ManageUserID       int64  `json:"manage_user_id,omitempty"`
	Welcomed           bool   `json:"welcomed,omitempty"`
}

// ResetFlow clears everything except the welcome flag, returning the
// session to top-level dispatch.
func (s *Session) ResetFlow() {
	welcomed := s.Welcomed
	*s = Session{Welcomed: welcomed}
}

// SessionStore persists per-user sessions as small JSON files so in-flight
// flows survive a restart.
type SessionStore struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	cache map[int64]Session
}

func NewSessionStore(dir string, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		dir:    dir,
		logger: logger,
		cache:  map[int64]Session{},
	}
}

func (ss *SessionStore) path(userID int64) string {
	return filepath.Join(ss.dir, fmt.Sprintf("%d.json", userID))
}

// Get returns the user's session, loading it from disk on first access.
func (ss *SessionStore) Get(userID int64) Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if s, ok := ss.cache[userID]; ok {
		return s
	}
	var s Session
	if _, err := fsstore.ReadJSON(ss.path(userID), &s); err != nil {
		ss.logger.Warn("unreadable session, starting fresh", "user_id", userID, "error", err)
		s = Session{}
	}
	ss.cache[userID] = s
	return s
}

// Put records and persists the user's session. Persistence failures are
// logged; the in-memory session stays authoritative for this process.
func (ss *SessionStore) Put(userID int64, s Session) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.cache[userID] = s
	if err := fsstore.WriteJSONAtomic(ss.path(userID), s, fsstore.FileOptions{}); err != nil {
		ss.logger.Warn("persisting session failed", "user_id", userID, "error", err)
	}
}
