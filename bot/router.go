package bot

import (
	"log/slog"
	"path/filepath"

	"github.com/shihab98bc/Render-Bot/dispense"
	"github.com/shihab98bc/Render-Bot/internal/telegramutil"
	"github.com/shihab98bc/Render-Bot/store"
)

// Config carries the router's collaborators and environment.
type Config struct {
	Store           *store.Store
	Sessions        *SessionStore
	Distributor     *dispense.Distributor
	Messenger       Messenger
	Scheduler       Rescheduler
	Logger          *slog.Logger
	AdminIDs        []int64
	SupportUsername string
	UploadsDir      string
	UserFilesDir    string
}

// Router maps (pending action, input) to exactly one handler.
type Router struct {
	store           *store.Store
	sessions        *SessionStore
	distributor     *dispense.Distributor
	messenger       Messenger
	scheduler       Rescheduler
	logger          *slog.Logger
	admins          map[int64]bool
	supportUsername string
	uploadsDir      string
	userFilesDir    string
}

func NewRouter(cfg Config) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	admins := make(map[int64]bool, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = true
	}
	return &Router{
		store:           cfg.Store,
		sessions:        cfg.Sessions,
		distributor:     cfg.Distributor,
		messenger:       cfg.Messenger,
		scheduler:       cfg.Scheduler,
		logger:          logger,
		admins:          admins,
		supportUsername: cfg.SupportUsername,
		uploadsDir:      cfg.UploadsDir,
		userFilesDir:    cfg.UserFilesDir,
	}
}

type handlerFunc func(r *Router, ev Event, s *Session)

// Pending-action dispatch tables. Admin states are only reachable for
// privileged callers; everything else while a tag is active is ignored.
var userStateHandlers = map[State]handlerFunc{
	StateAwaitMainCategory:       (*Router).chooseSubcategory,
	StateAwaitNumberCategory:     (*Router).giveNumber,
	StateAwaitGender:             (*Router).generateFakeName,
	StateAwait2FASecret:          (*Router).handle2FASecret,
	StateAwaitSubmissionCategory: (*Router).chooseSubmissionUpload,
}

var adminStateHandlers = map[State]handlerFunc{
	StateAwaitBroadcast:            (*Router).sendBroadcast,
	StateAwaitAddType:              (*Router).chooseAddType,
	StateAwaitRemoveType:           (*Router).chooseRemoveType,
	StateAwaitMainButtonName:       (*Router).addMainCategory,
	StateAwaitMainForSubAdd:        (*Router).askSubcategoryName,
	StateAwaitSubButtonName:        (*Router).addSubcategory,
	StateAwaitMainButtonRemove:     (*Router).removeMainCategory,
	StateAwaitMainForSubRemove:     (*Router).chooseSubcategoryRemoval,
	StateAwaitSubButtonRemove:      (*Router).removeSubcategory,
	StateAwaitMainForUpload:        (*Router).chooseUploadSubcategory,
	StateAwaitUploadSubChoice:      (*Router).askNumberFile,
	StateAwaitTxtUpload:            (*Router).remindTxtUpload,
	StateAwaitXLSXUpload:           (*Router).remindXLSXUpload,
	StateAwaitUserToManage:         (*Router).chooseUserAction,
	StateAwaitUserManageAction:     (*Router).toggleUserBlock,
	StateAwaitOTPLink:              (*Router).setOTPLink,
	StateAwaitSubmissionNameAdd:    (*Router).addSubmissionCategory,
	StateAwaitSubmissionNameRemove: (*Router).removeSubmissionCategory,
	StateAwaitDeliveryTime:         (*Router).setDeliveryTime,
}

// Top-level menu dispatch, keyed by the literal button label.
var userMenuHandlers = map[string]handlerFunc{
	labelGetNumber:  (*Router).openNumberMenu,
	labelSubmitFile: (*Router).openSubmissionMenu,
	labelFakeName:   (*Router).openFakeNameMenu,
	labelGet2FA:     (*Router).open2FAMenu,
	labelInfo:       (*Router).showInfo,
	labelSupport:    (*Router).showSupport,
}

var adminMenuHandlers = map[string]handlerFunc{
	labelAdminPanel:     (*Router).openAdminPanel,
	labelBroadcast:      (*Router).openBroadcast,
	labelAddButton:      (*Router).openAddMenu,
	labelRemoveButton:   (*Router).openRemoveMenu,
	labelUploadFile:     (*Router).openUploadMenu,
	labelUserList:       (*Router).openUserList,
	labelSetOTPLink:     (*Router).openSetOTPLink,
	labelOffOTPLink:     (*Router).turnOffOTPLink,
	labelAddFileName:    (*Router).openAddSubmissionCategory,
	labelRemoveFileName: (*Router).openRemoveSubmissionCategory,
	labelSetTime:        (*Router).openSetDeliveryTime,
}

// Handle routes one inbound event to exactly one handler. It never panics a
// flow: stale context resets to the top menu and unknown input is a no-op.
func (r *Router) Handle(ev Event) {
	if r.store.IsBlacklisted(ev.UserID) {
		r.send(ev.ChatID, Reply{Text: bold("You have been blocked from using this bot."), RemoveKeyboard: ev.Command == "start"})
		return
	}

	if ev.Command == "start" {
		s := r.sessions.Get(ev.UserID)
		r.showStart(ev, &s)
		return
	}
	// /start is the only recognized command. Any other slash command is
	// dropped here so it can never feed an active flow as input.
	if ev.Command != "" {
		return
	}

	if ev.Document != nil {
		s := r.sessions.Get(ev.UserID)
		r.handleDocument(ev, &s)
		return
	}

	s := r.sessions.Get(ev.UserID)

	// Global interrupts win over any active flow.
	if ev.Text == labelBackToMain {
		r.showStart(ev, &s)
		return
	}
	if r.isAdmin(ev.UserID) && ev.Text == labelBackToAdmin {
		r.backToAdminPanel(ev, &s)
		return
	}

	if s.State != StateNone {
		if h, ok := userStateHandlers[s.State]; ok {
			h(r, ev, &s)
			return
		}
		if r.isAdmin(ev.UserID) {
			if h, ok := adminStateHandlers[s.State]; ok {
				h(r, ev, &s)
				return
			}
		}
		// Unknown or unauthorized state input: ignored.
		return
	}

	if h, ok := userMenuHandlers[ev.Text]; ok {
		h(r, ev, &s)
		return
	}
	if r.isAdmin(ev.UserID) {
		if h, ok := adminMenuHandlers[ev.Text]; ok {
			h(r, ev, &s)
			return
		}
	}
	// Unmatched top-level input is deliberately a silent no-op.
}

func (r *Router) isAdmin(userID int64) bool {
	return r.admins[userID]
}

// send delivers a reply, logging rather than propagating failures: a dead
// chat must never break the flow that produced the message.
func (r *Router) send(chatID int64, reply Reply) {
	if err := r.messenger.Send(chatID, reply); err != nil {
		r.logger.Warn("send failed", "chat_id", chatID, "error", err)
	}
}

// setState persists a session transition.
func (r *Router) setState(ev Event, s *Session, state State) {
	s.State = state
	r.sessions.Put(ev.UserID, *s)
}

// mainMenuFor returns the role-appropriate top-level keyboard.
func (r *Router) mainMenuFor(userID int64) []string {
	if r.isAdmin(userID) {
		return adminMainMenu()
	}
	return userMainMenu()
}

func (r *Router) numberFilePath(category, sub string) string {
	return filepath.Join(r.uploadsDir, category+"_"+sub+".txt")
}

func (r *Router) submissionFilePath(userID int64, category string) string {
	return filepath.Join(r.userFilesDir, formatUserID(userID), category+".xlsx")
}

// Formatting shorthands over MarkdownV2.
func esc(s string) string  { return telegramutil.EscapeMarkdownV2(s) }
func bold(s string) string { return telegramutil.Bold(esc(s)) }
func code(s string) string { return telegramutil.Code(esc(s)) }
