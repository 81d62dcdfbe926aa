// Package bot implements the conversation router: a per-user pending-action
// state machine that interprets menu input and drives every user and admin
// flow. The package is transport-agnostic; inbound updates arrive as Events
// and outbound traffic goes through the Messenger interface.
package bot

// Event is one inbound chat update, text or document.
type Event struct {
	UserID       int64
	ChatID       int64
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string

	// Command is the bare command name ("start") when the update was a
	// slash command, otherwise empty.
	Command string
	Text    string

	Document *Document
}

// Document describes an attached file by transport reference.
type Document struct {
	FileID   string
	FileName string
}

// Reply is one outbound message. Text is MarkdownV2.
type Reply struct {
	Text string
	// Keyboard lists button labels for a reply keyboard; nil leaves the
	// current keyboard in place.
	Keyboard []string
	// PerRow is how many buttons share a keyboard row; zero means 2.
	PerRow            int
	RemoveKeyboard    bool
	DisableWebPreview bool
}

// Messenger is the outbound side of the chat transport. Delivery failures
// are per-recipient and never fatal.
type Messenger interface {
	Send(chatID int64, reply Reply) error
	SendDocument(chatID int64, path, caption string) error
	// Download fetches a transport file reference to a local path.
	Download(fileID, destPath string) error
}

// Rescheduler updates the daily report job when an admin changes the
// delivery time.
type Rescheduler interface {
	Reschedule(timeOfDay, timezone string) error
}
