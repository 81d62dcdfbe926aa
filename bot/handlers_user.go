package bot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shihab98bc/Render-Bot/dispense"
	"github.com/shihab98bc/Render-Bot/identity"
	"github.com/shihab98bc/Render-Bot/store"
)

func formatUserID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// showStart welcomes new users once, registers them, clears any in-flight
// flow and shows the role-appropriate main menu.
func (r *Router) showStart(ev Event, s *Session) {
	userID := formatUserID(ev.UserID)
	err := r.store.Update(func(d *store.Data) error {
		if _, ok := d.Users[userID]; !ok {
			d.Users[userID] = store.User{
				FirstName: ev.FirstName,
				LastName:  ev.LastName,
				Username:  ev.Username,
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("registering user failed", "user_id", ev.UserID, "error", err)
	}

	s.ResetFlow()
	if !s.Welcomed {
		r.send(ev.ChatID, Reply{Text: bold(fmt.Sprintf("👋 Welcome, %s!", ev.FirstName))})
		s.Welcomed = true
	}
	r.sessions.Put(ev.UserID, *s)

	r.send(ev.ChatID, Reply{
		Text:     bold("Please choose an option from the main menu:"),
		Keyboard: r.mainMenuFor(ev.UserID),
	})
}

// --- Get Number ---

func (r *Router) openNumberMenu(ev Event, s *Session) {
	data := r.store.Snapshot()
	names := data.CategoryNames()
	if len(names) == 0 {
		r.send(ev.ChatID, Reply{Text: bold("Sorry, no number categories are available right now.")})
		return
	}
	r.setState(ev, s, StateAwaitMainCategory)
	r.send(ev.ChatID, Reply{
		Text:     bold("Please choose a category to get a number:"),
		Keyboard: withBack(names),
	})
}

func (r *Router) chooseSubcategory(ev Event, s *Session) {
	data := r.store.Snapshot()
	cat := data.FindCategory(ev.Text)
	if cat == nil {
		r.send(ev.ChatID, Reply{Text: bold("Invalid category. Please select from the menu.")})
		r.openNumberMenu(ev, s)
		return
	}
	if len(cat.Subcategories) == 0 {
		r.send(ev.ChatID, Reply{Text: bold("Sorry, no numbers are available in this sub-category yet.")})
		r.openNumberMenu(ev, s)
		return
	}
	s.Category = cat.Name
	r.setState(ev, s, StateAwaitNumberCategory)
	r.send(ev.ChatID, Reply{
		Text:     bold(fmt.Sprintf("Please choose a sub-category from '%s':", cat.Name)),
		Keyboard: withBack(cat.Subcategories),
	})
}

func (r *Router) giveNumber(ev Event, s *Session) {
	if s.Category == "" {
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please try again from the main menu.")})
		r.showStart(ev, s)
		return
	}

	number, err := r.distributor.Dispense(s.Category, ev.Text)
	switch {
	case errors.Is(err, dispense.ErrCooldown):
		wait := int(r.distributor.Cooldown() / time.Second)
		r.send(ev.ChatID, Reply{Text: bold(fmt.Sprintf("Please wait %d seconds before taking another number.", wait))})
		return
	case errors.Is(err, dispense.ErrNotReady):
		r.send(ev.ChatID, Reply{Text: bold("Sorry, the numbers for this category have not been uploaded yet.")})
		return
	case errors.Is(err, dispense.ErrEmpty):
		r.send(ev.ChatID, Reply{Text: bold("Sorry, all numbers for this category have been distributed.")})
		return
	case err != nil:
		r.logger.Error("dispense failed", "category", s.Category, "subcategory", ev.Text, "error", err)
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please try again later.")})
		return
	}

	otpLink := r.store.Snapshot().OTPGroupLink
	var b strings.Builder
	b.WriteString(esc("✅ আপনার নাম্বার - ") + code(number) + "\n\n")
	if otpLink != "" {
		b.WriteString(esc("এই নাম্বারের Code রিসিভ করার জন্য নিচে Click Here এ Click করুন!") + "\n")
		b.WriteString("OTP Group \\- [Click here](" + esc(otpLink) + ")\n\n")
	}
	b.WriteString(esc("⚙️যেকোনো সমস্যা হলে নিচের Support বাটনে ক্লিক করে আমাদের জানান।"))

	r.send(ev.ChatID, Reply{Text: b.String(), DisableWebPreview: true})
}

// --- Submit File ---

func (r *Router) openSubmissionMenu(ev Event, s *Session) {
	data := r.store.Snapshot()
	if len(data.SubmissionCategories) == 0 {
		r.send(ev.ChatID, Reply{Text: bold("Sorry, no file submission categories are available right now.")})
		return
	}
	r.setState(ev, s, StateAwaitSubmissionCategory)
	r.send(ev.ChatID, Reply{
		Text:     bold("Please choose a category to submit your file:"),
		Keyboard: withBack(data.SubmissionCategories),
	})
}

func (r *Router) chooseSubmissionUpload(ev Event, s *Session) {
	data := r.store.Snapshot()
	if !data.HasSubmissionCategory(ev.Text) {
		r.send(ev.ChatID, Reply{Text: bold("Invalid category selection.")})
		r.openSubmissionMenu(ev, s)
		return
	}
	s.SubmissionCategory = ev.Text
	r.setState(ev, s, StateAwaitXLSXUpload)
	r.send(ev.ChatID, Reply{
		Text: bold(fmt.Sprintf("You have selected '%s'.", ev.Text)) + "\n\n" +
			bold("Please upload your .xlsx file now."),
		Keyboard: []string{labelBackToMain},
	})
}

func (r *Router) receiveSubmission(ev Event, s *Session) {
	if s.SubmissionCategory == "" {
		r.send(ev.ChatID, Reply{Text: bold("An error occurred, please select a category first.")})
		return
	}

	dest := r.submissionFilePath(ev.UserID, s.SubmissionCategory)
	if _, err := os.Stat(dest); err == nil {
		r.logger.Info("replacing existing submission",
			"user_id", ev.UserID, "category", s.SubmissionCategory)
		_ = os.Remove(dest)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
		r.logger.Error("creating submission dir failed", "user_id", ev.UserID, "error", err)
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please try again later.")})
		return
	}
	if err := r.messenger.Download(ev.Document.FileID, dest); err != nil {
		r.logger.Error("downloading submission failed", "user_id", ev.UserID, "error", err)
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please try again later.")})
		return
	}

	r.send(ev.ChatID, Reply{
		Text: bold(fmt.Sprintf("✅ Your file for '%s' has been successfully submitted!", s.SubmissionCategory)),
	})
	r.showStart(ev, s)
}

// --- Fake Name ---

func (r *Router) openFakeNameMenu(ev Event, s *Session) {
	r.setState(ev, s, StateAwaitGender)
	r.send(ev.ChatID, Reply{
		Text:     bold("Please select a gender for the fake name:"),
		Keyboard: genderMenu(),
	})
}

func (r *Router) generateFakeName(ev Event, s *Session) {
	var gender identity.Gender
	var genderEmoji string
	switch ev.Text {
	case labelMale:
		gender, genderEmoji = identity.Male, "👨"
	case labelFemale:
		gender, genderEmoji = identity.Female, "👩"
	default:
		// Anything else while choosing a gender is ignored.
		return
	}

	profile, err := identity.Fake(gender, time.Now())
	if err != nil {
		r.logger.Error("identity generation failed", "error", err)
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please try again later.")})
		return
	}

	msg := bold(genderEmoji+" Generated Identity:") + "\n\n" +
		bold("First name:") + " " + code(profile.FirstName) + "\n" +
		bold("Last name:") + " " + code(profile.LastName) + "\n" +
		bold("Username:") + " " + code(profile.Username) + "\n" +
		bold("Password:") + " " + code(profile.Password)
	r.send(ev.ChatID, Reply{Text: msg})
	r.showStart(ev, s)
}

// --- Get 2FA ---

func (r *Router) open2FAMenu(ev Event, s *Session) {
	r.setState(ev, s, StateAwait2FASecret)

	saved := r.store.Snapshot().Secrets[formatUserID(ev.UserID)]
	if saved != "" {
		r.send(ev.ChatID, Reply{
			Text: bold("📲 2FA Code Generator") + "\n\n" +
				esc("You have a saved 2FA secret key. Would you like to:") + "\n" +
				esc("1. Use the saved key") + "\n" +
				esc("2. Enter a new key") + "\n\n" +
				esc("Or send your new 2FA secret key now (e.g., BK5V TVQ7 D2RB...)"),
			Keyboard: []string{labelUseSavedKey, labelEnterNewKey, labelBackToMain},
		})
		return
	}
	r.send(ev.ChatID, Reply{
		Text: bold("📲 2FA Code Generator") + "\n\n" +
			esc("Please enter your 2FA secret key (e.g., BK5V TVQ7 D2RB...)") + "\n\n" +
			bold("Note:") + " " + esc("This key will be saved for future use unless you choose to remove it."),
		Keyboard: []string{labelBackToMain},
	})
}

func (r *Router) handle2FASecret(ev Event, s *Session) {
	userID := formatUserID(ev.UserID)

	switch ev.Text {
	case labelUseSavedKey:
		saved := r.store.Snapshot().Secrets[userID]
		if saved == "" {
			r.send(ev.ChatID, Reply{Text: bold("No saved 2FA key found. Please enter a new one.")})
			return
		}
		r.send2FACode(ev, s, saved)
		return
	case labelEnterNewKey:
		r.send(ev.ChatID, Reply{
			Text:     bold("Please enter your new 2FA secret key (e.g., BK5V TVQ7 D2RB...):"),
			Keyboard: []string{labelBackToMain},
		})
		return
	}

	if !identity.ValidateSecret(ev.Text) {
		r.send(ev.ChatID, Reply{
			Text: bold("Invalid 2FA secret key format. Please enter a valid key (e.g., BK5V TVQ7 D2RB...)"),
		})
		return
	}

	if err := r.store.Update(func(d *store.Data) error {
		d.Secrets[userID] = ev.Text
		return nil
	}); err != nil {
		r.logger.Error("saving 2fa secret failed", "user_id", ev.UserID, "error", err)
	}
	r.send2FACode(ev, s, ev.Text)
}

func (r *Router) send2FACode(ev Event, s *Session, secret string) {
	otc, err := identity.Code(secret)
	if err != nil {
		r.send(ev.ChatID, Reply{
			Text: bold("Error generating 2FA code. Please check your secret key and try again."),
		})
		return
	}

	msg := bold("🔐 2FA Authentication Code") + "\n\n" +
		bold("Your Code:") + " " + code(otc.Code) + "\n" +
		bold("Valid for:") + " " + esc(fmt.Sprintf("%d seconds", otc.SecondsRemaining)) + "\n\n" +
		bold("Note:") + " " + esc("This code refreshes every 30 seconds. You can request a new code at any time.")
	r.send(ev.ChatID, Reply{Text: msg, Keyboard: r.mainMenuFor(ev.UserID)})
	r.setState(ev, s, StateNone)
}

// --- Info & Support ---

func (r *Router) showInfo(ev Event, s *Session) {
	orNA := func(v string) string {
		if v == "" {
			return "N/A"
		}
		return v
	}
	msg := bold("ℹ️ Your Info:") + "\n\n" +
		bold("▪️ ID:") + " " + code(formatUserID(ev.UserID)) + "\n" +
		bold("▪️ First Name:") + " " + esc(ev.FirstName) + "\n" +
		bold("▪️ Last Name:") + " " + esc(orNA(ev.LastName)) + "\n" +
		bold("▪️ Username:") + " @" + esc(orNA(ev.Username)) + "\n" +
		bold("▪️ Language:") + " " + esc(orNA(ev.LanguageCode))
	r.send(ev.ChatID, Reply{Text: msg})
}

func (r *Router) showSupport(ev Event, s *Session) {
	r.send(ev.ChatID, Reply{
		Text: bold("🆘 For support, please contact:") + " " + esc(r.supportUsername),
	})
}

// --- Documents ---

// handleDocument routes file uploads by pending state: number files from
// admins, submissions from anyone mid-flow; anything else is refused.
func (r *Router) handleDocument(ev Event, s *Session) {
	name := strings.ToLower(ev.Document.FileName)

	switch {
	case r.isAdmin(ev.UserID) && s.State == StateAwaitTxtUpload:
		if !strings.HasSuffix(name, ".txt") {
			r.send(ev.ChatID, Reply{Text: bold("Invalid file type. Please upload a .txt file.")})
			return
		}
		r.receiveNumberFile(ev, s)
	case s.State == StateAwaitXLSXUpload:
		if !strings.HasSuffix(name, ".xlsx") {
			r.send(ev.ChatID, Reply{Text: bold("Invalid file type. Please upload an .xlsx file.")})
			return
		}
		r.receiveSubmission(ev, s)
	case r.isAdmin(ev.UserID):
		r.send(ev.ChatID, Reply{Text: bold("I'm not expecting a file right now. Please use the menu buttons.")})
	default:
		r.send(ev.ChatID, Reply{Text: bold("You are not authorized to perform this action or the bot is not expecting a file.")})
	}
}
