package bot

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shihab98bc/Render-Bot/internal/telegramutil"
	"github.com/shihab98bc/Render-Bot/store"
)

var (
	managedUserPattern = regexp.MustCompile(`\(ID:(\d+)\)`)
	groupLinkPattern   = regexp.MustCompile(`^https?://(?:www\.)?\S+`)
	deliveryPattern    = regexp.MustCompile(`(?i)^(0?[1-9]|1[0-2]):([0-5][0-9])\s*([AP]M)$`)
)

// backToAdminPanel clears any in-flight flow and shows the admin panel.
func (r *Router) backToAdminPanel(ev Event, s *Session) {
	s.ResetFlow()
	r.sessions.Put(ev.UserID, *s)
	r.send(ev.ChatID, Reply{
		Text:     bold("⚙️ Admin Panel:"),
		Keyboard: adminPanelMenu(),
	})
}

func (r *Router) openAdminPanel(ev Event, s *Session) {
	r.backToAdminPanel(ev, s)
}

// --- Broadcast ---

func (r *Router) openBroadcast(ev Event, s *Session) {
	r.setState(ev, s, StateAwaitBroadcast)
	r.send(ev.ChatID, Reply{
		Text:     bold("Please send the message you want to broadcast to all users, or go back."),
		Keyboard: cancelMenu(),
	})
}

func (r *Router) sendBroadcast(ev Event, s *Session) {
	batchID := uuid.NewString()
	text := bold("📢 Broadcast Message:") + "\n\n" + esc(ev.Text)

	data := r.store.Snapshot()
	sent := 0
	for _, userID := range sortedUserIDs(data.Users) {
		if userID == ev.UserID {
			continue
		}
		if err := r.messenger.Send(userID, Reply{Text: text}); err != nil {
			r.logger.Warn("broadcast delivery failed",
				"batch_id", batchID, "user_id", userID, "error", err)
			continue
		}
		sent++
	}
	r.logger.Info("broadcast finished", "batch_id", batchID, "recipients", sent)

	r.send(ev.ChatID, Reply{Text: bold("✅ Broadcast message sent to all users!")})
	r.backToAdminPanel(ev, s)
}

// --- Number category management ---

func (r *Router) openAddMenu(ev Event, s *Session) {
	r.setState(ev, s, StateAwaitAddType)
	r.send(ev.ChatID, Reply{
		Text:     bold("Select the type of button you want to add:"),
		Keyboard: addTypeMenu(),
	})
}

func (r *Router) chooseAddType(ev Event, s *Session) {
	switch ev.Text {
	case labelAddMain:
		r.setState(ev, s, StateAwaitMainButtonName)
		r.send(ev.ChatID, Reply{
			Text:     bold("Please send the name for the new main button (e.g., OTT), or go back."),
			Keyboard: cancelMenu(),
		})
	case labelAddSub:
		r.openSubcategoryAdd(ev, s)
	}
}

func (r *Router) openSubcategoryAdd(ev Event, s *Session) {
	names := r.store.Snapshot().CategoryNames()
	if len(names) == 0 {
		r.send(ev.ChatID, Reply{Text: bold("Please add a main button first before adding a sub-button.")})
		r.backToAdminPanel(ev, s)
		return
	}
	r.setState(ev, s, StateAwaitMainForSubAdd)
	r.send(ev.ChatID, Reply{
		Text:     bold("Select a main button to add a sub-button to:"),
		Keyboard: withAdminBack(names),
	})
}

func (r *Router) addMainCategory(ev Event, s *Session) {
	name := ev.Text
	if r.store.Snapshot().FindCategory(name) != nil {
		r.send(ev.ChatID, Reply{Text: bold("This main button already exists. Please choose another name.")})
		return
	}
	if err := r.store.Update(func(d *store.Data) error {
		d.Categories = append(d.Categories, store.Category{Name: name})
		return nil
	}); err != nil {
		r.logger.Error("adding category failed", "category", name, "error", err)
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please try again later.")})
		return
	}
	r.send(ev.ChatID, Reply{Text: bold("✅ Main button '" + name + "' added successfully!")})
	r.backToAdminPanel(ev, s)
}

func (r *Router) askSubcategoryName(ev Event, s *Session) {
	if r.store.Snapshot().FindCategory(ev.Text) == nil {
		r.send(ev.ChatID, Reply{Text: bold("Invalid main button selected. Please try again.")})
		r.openSubcategoryAdd(ev, s)
		return
	}
	s.Category = ev.Text
	r.setState(ev, s, StateAwaitSubButtonName)
	r.send(ev.ChatID, Reply{
		Text:     bold("Please send the name for the new sub-button under '" + ev.Text + "' (e.g., Netflix), or go back."),
		Keyboard: cancelMenu(),
	})
}

func (r *Router) addSubcategory(ev Event, s *Session) {
	main, sub := s.Category, ev.Text
	if main == "" {
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please start over.")})
		r.backToAdminPanel(ev, s)
		return
	}

	var missing, duplicate bool
	err := r.store.Update(func(d *store.Data) error {
		cat := d.FindCategory(main)
		if cat == nil {
			missing = true
			return nil
		}
		for _, existing := range cat.Subcategories {
			if existing == sub {
				duplicate = true
				return nil
			}
		}
		cat.Subcategories = append(cat.Subcategories, sub)
		return nil
	})
	switch {
	case err != nil:
		r.logger.Error("adding subcategory failed", "category", main, "subcategory", sub, "error", err)
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please try again later.")})
		return
	case missing:
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please start over.")})
		r.backToAdminPanel(ev, s)
		return
	case duplicate:
		r.send(ev.ChatID, Reply{Text: bold("This sub-button already exists under '" + main + "'. Please choose another name.")})
		return
	}

	r.send(ev.ChatID, Reply{Text: bold("✅ Sub-button '" + sub + "' added successfully to '" + main + "'!")})
	r.backToAdminPanel(ev, s)
}

func (r *Router) openRemoveMenu(ev Event, s *Session) {
	if len(r.store.Snapshot().Categories) == 0 {
		r.send(ev.ChatID, Reply{Text: bold("There are no buttons to remove.")})
		r.backToAdminPanel(ev, s)
		return
	}
	r.setState(ev, s, StateAwaitRemoveType)
	r.send(ev.ChatID, Reply{
		Text:     bold("Select the type of button you want to remove:"),
		Keyboard: removeTypeMenu(),
	})
}

func (r *Router) chooseRemoveType(ev Event, s *Session) {
	switch ev.Text {
	case labelRemoveMain:
		r.setState(ev, s, StateAwaitMainButtonRemove)
		r.send(ev.ChatID, Reply{
			Text:     bold("Select a main button to remove (this will also remove all its sub-buttons and files):"),
			Keyboard: withAdminBack(r.store.Snapshot().CategoryNames()),
		})
	case labelRemoveSub:
		r.openSubcategoryRemoval(ev, s)
	}
}

func (r *Router) openSubcategoryRemoval(ev Event, s *Session) {
	r.setState(ev, s, StateAwaitMainForSubRemove)
	r.send(ev.ChatID, Reply{
		Text:     bold("Select a main button to see its sub-buttons for removal:"),
		Keyboard: withAdminBack(r.store.Snapshot().CategoryNames()),
	})
}

// removeMainCategory drops the category, its cursors and its number files.
func (r *Router) removeMainCategory(ev Event, s *Session) {
	name := ev.Text
	cat := r.store.Snapshot().FindCategory(name)
	if cat == nil {
		r.send(ev.ChatID, Reply{Text: bold("Error: Main button not found.")})
		r.backToAdminPanel(ev, s)
		return
	}

	for _, sub := range cat.Subcategories {
		if err := os.Remove(r.numberFilePath(name, sub)); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("removing number file failed",
				"category", name, "subcategory", sub, "error", err)
		}
	}

	if err := r.store.Update(func(d *store.Data) error {
		d.DropCategoryCursors(name)
		for i, c := range d.Categories {
			if c.Name == name {
				d.Categories = append(d.Categories[:i], d.Categories[i+1:]...)
				break
			}
		}
		return nil
	}); err != nil {
		r.logger.Error("removing category failed", "category", name, "error", err)
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please try again later.")})
		return
	}

	r.send(ev.ChatID, Reply{Text: bold("🗑️ Main button '" + name + "' and all its sub-buttons/files removed.")})
	r.backToAdminPanel(ev, s)
}

func (r *Router) chooseSubcategoryRemoval(ev Event, s *Session) {
	cat := r.store.Snapshot().FindCategory(ev.Text)
	if cat == nil {
		r.send(ev.ChatID, Reply{Text: bold("Invalid main button selected. Please try again.")})
		r.openSubcategoryRemoval(ev, s)
		return
	}
	if len(cat.Subcategories) == 0 {
		r.send(ev.ChatID, Reply{Text: bold("There are no sub-buttons to remove under '" + cat.Name + "'.")})
		r.backToAdminPanel(ev, s)
		return
	}
	s.Category = cat.Name
	r.setState(ev, s, StateAwaitSubButtonRemove)
	r.send(ev.ChatID, Reply{
		Text:     bold("Select a sub-button to remove from '" + cat.Name + "':"),
		Keyboard: withAdminBack(cat.Subcategories),
	})
}

func (r *Router) removeSubcategory(ev Event, s *Session) {
	main, sub := s.Category, ev.Text
	if main == "" {
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please start over.")})
		r.backToAdminPanel(ev, s)
		return
	}

	removed := false
	err := r.store.Update(func(d *store.Data) error {
		cat := d.FindCategory(main)
		if cat == nil {
			return nil
		}
		for i, existing := range cat.Subcategories {
			if existing == sub {
				cat.Subcategories = append(cat.Subcategories[:i], cat.Subcategories[i+1:]...)
				d.DropCursor(main, sub)
				removed = true
				break
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("removing subcategory failed", "category", main, "subcategory", sub, "error", err)
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please try again later.")})
		return
	}

	if removed {
		if err := os.Remove(r.numberFilePath(main, sub)); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("removing number file failed",
				"category", main, "subcategory", sub, "error", err)
		}
		r.send(ev.ChatID, Reply{Text: bold("🗑️ Sub-button '" + sub + "' removed.")})
	} else {
		r.send(ev.ChatID, Reply{Text: bold("Error: Sub-button not found.")})
	}
	r.backToAdminPanel(ev, s)
}

// --- Number file upload ---

func (r *Router) openUploadMenu(ev Event, s *Session) {
	names := r.store.Snapshot().CategoryNames()
	if len(names) == 0 {
		r.send(ev.ChatID, Reply{Text: bold("Please add a main button first before uploading a file.")})
		r.backToAdminPanel(ev, s)
		return
	}
	r.setState(ev, s, StateAwaitMainForUpload)
	r.send(ev.ChatID, Reply{
		Text:     bold("Select the main button for which you want to upload a file:"),
		Keyboard: withAdminBack(names),
	})
}

func (r *Router) chooseUploadSubcategory(ev Event, s *Session) {
	cat := r.store.Snapshot().FindCategory(ev.Text)
	if cat == nil {
		r.send(ev.ChatID, Reply{Text: bold("Invalid main button selected. Please try again.")})
		r.openUploadMenu(ev, s)
		return
	}
	if len(cat.Subcategories) == 0 {
		r.send(ev.ChatID, Reply{Text: bold("Please add a sub-button to '" + cat.Name + "' first.")})
		r.backToAdminPanel(ev, s)
		return
	}
	s.Category = cat.Name
	r.setState(ev, s, StateAwaitUploadSubChoice)
	r.send(ev.ChatID, Reply{
		Text:     bold("Select the sub-button for which you want to upload a .txt file:"),
		Keyboard: withAdminBack(cat.Subcategories),
	})
}

func (r *Router) askNumberFile(ev Event, s *Session) {
	main, sub := s.Category, ev.Text
	if main == "" {
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please start over.")})
		r.backToAdminPanel(ev, s)
		return
	}

	cat := r.store.Snapshot().FindCategory(main)
	valid := false
	if cat != nil {
		for _, existing := range cat.Subcategories {
			if existing == sub {
				valid = true
				break
			}
		}
	}
	if !valid {
		r.send(ev.ChatID, Reply{Text: bold("Invalid sub-button selected. Please try again.")})
		r.openUploadMenu(ev, s)
		return
	}

	s.Subcategory = sub
	r.setState(ev, s, StateAwaitTxtUpload)
	r.send(ev.ChatID, Reply{
		Text:     bold("Please upload the .txt file for the '" + main + " > " + sub + "' button, or go back."),
		Keyboard: cancelMenu(),
	})
}

func (r *Router) remindTxtUpload(ev Event, s *Session) {
	r.send(ev.ChatID, Reply{Text: bold("Please upload a .txt file or use the 'Back' button.")})
}

func (r *Router) remindXLSXUpload(ev Event, s *Session) {
	r.send(ev.ChatID, Reply{Text: bold("Please upload an .xlsx file or use the 'Back' button.")})
}

// receiveNumberFile replaces the category's number file, rewinds its cursor
// and announces the fresh stock to every user.
func (r *Router) receiveNumberFile(ev Event, s *Session) {
	main, sub := s.Category, s.Subcategory
	if main == "" || sub == "" {
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please start over.")})
		r.backToAdminPanel(ev, s)
		return
	}

	dest := r.numberFilePath(main, sub)
	if err := os.Remove(dest); err == nil {
		r.logger.Info("deleted old number file", "category", main, "subcategory", sub)
	}
	if err := os.MkdirAll(r.uploadsDir, 0o700); err != nil {
		r.logger.Error("creating uploads dir failed", "error", err)
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please try again later.")})
		return
	}
	if err := r.messenger.Download(ev.Document.FileID, dest); err != nil {
		r.logger.Error("downloading number file failed",
			"category", main, "subcategory", sub, "error", err)
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please try again later.")})
		return
	}

	if err := r.store.Update(func(d *store.Data) error {
		d.SetCursor(main, sub, 0)
		return nil
	}); err != nil {
		r.logger.Error("resetting cursor failed", "category", main, "subcategory", sub, "error", err)
	}

	r.send(ev.ChatID, Reply{Text: bold("✅ File for '" + main + " > " + sub + "' uploaded successfully!")})

	notice := bold("অ্যাডমিন " + main + " এর জন্য '" + sub + "' এর নতুন নাম্বার যোগ করেছেন। এখন আপনি নাম্বার নিতে পারেন!")
	for _, userID := range sortedUserIDs(r.store.Snapshot().Users) {
		if userID == ev.UserID {
			continue
		}
		if err := r.messenger.Send(userID, Reply{Text: notice}); err != nil {
			r.logger.Warn("upload notification failed", "user_id", userID, "error", err)
		}
	}

	r.backToAdminPanel(ev, s)
}

// --- User management ---

func (r *Router) openUserList(ev Event, s *Session) {
	data := r.store.Snapshot()
	if len(data.Users) == 0 {
		r.send(ev.ChatID, Reply{Text: bold("No users have interacted with the bot yet.")})
		r.backToAdminPanel(ev, s)
		return
	}

	buttons := make([]string, 0, len(data.Users))
	for _, userID := range sortedUserIDs(data.Users) {
		info := data.Users[strconv.FormatInt(userID, 10)]
		name := info.FirstName
		if name == "" {
			name = "User " + strconv.FormatInt(userID, 10)
		}
		label := "👤 " + name + " (ID:" + strconv.FormatInt(userID, 10) + ")"
		if data.HasBlacklisted(userID) {
			label += " (🚫 Blocked)"
		}
		buttons = append(buttons, label)
	}

	r.setState(ev, s, StateAwaitUserToManage)
	r.send(ev.ChatID, Reply{
		Text:     bold("Select a user to manage:"),
		Keyboard: withAdminBack(buttons),
		PerRow:   1,
	})
}

func (r *Router) chooseUserAction(ev Event, s *Session) {
	m := managedUserPattern.FindStringSubmatch(ev.Text)
	if m == nil {
		r.send(ev.ChatID, Reply{Text: bold("Invalid selection. Please try again.")})
		r.openUserList(ev, s)
		return
	}
	userID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		r.send(ev.ChatID, Reply{Text: bold("Invalid selection. Please try again.")})
		r.openUserList(ev, s)
		return
	}

	s.ManageUserID = userID
	r.setState(ev, s, StateAwaitUserManageAction)
	r.send(ev.ChatID, Reply{
		Text:     telegramutil.Bold("Managing user " + code(m[1]) + esc(". Select an action:")),
		Keyboard: []string{labelBlockUser, labelUnblockUser, labelBackToAdmin},
	})
}

func (r *Router) toggleUserBlock(ev Event, s *Session) {
	userID := s.ManageUserID
	if userID == 0 {
		r.send(ev.ChatID, Reply{Text: bold("Error: No user selected.")})
		r.backToAdminPanel(ev, s)
		return
	}
	idStr := strconv.FormatInt(userID, 10)

	switch ev.Text {
	case labelBlockUser:
		var added bool
		if err := r.store.Update(func(d *store.Data) error {
			added = d.AddBlacklist(userID)
			return nil
		}); err != nil {
			r.logger.Error("blocking user failed", "user_id", userID, "error", err)
			return
		}
		if added {
			r.send(ev.ChatID, Reply{Text: telegramutil.Bold("User " + code(idStr) + esc(" has been blocked."))})
			if err := r.messenger.Send(userID, Reply{Text: bold("You have been blocked from using this bot.")}); err != nil {
				r.logger.Warn("block notification failed", "user_id", userID, "error", err)
			}
		} else {
			r.send(ev.ChatID, Reply{Text: telegramutil.Bold("User " + code(idStr) + esc(" is already blocked."))})
		}
	case labelUnblockUser:
		var removed bool
		if err := r.store.Update(func(d *store.Data) error {
			removed = d.RemoveBlacklist(userID)
			return nil
		}); err != nil {
			r.logger.Error("unblocking user failed", "user_id", userID, "error", err)
			return
		}
		if removed {
			r.send(ev.ChatID, Reply{Text: telegramutil.Bold("User " + code(idStr) + esc(" has been unblocked."))})
			if err := r.messenger.Send(userID, Reply{Text: bold("You have been unblocked and can now use the bot again.")}); err != nil {
				r.logger.Warn("unblock notification failed", "user_id", userID, "error", err)
			}
		} else {
			r.send(ev.ChatID, Reply{Text: telegramutil.Bold("User " + code(idStr) + esc(" is not blocked."))})
		}
	default:
		// Anything but the two action buttons is ignored.
		return
	}

	s.ManageUserID = 0
	r.openUserList(ev, s)
}

// --- OTP group link ---

func (r *Router) openSetOTPLink(ev Event, s *Session) {
	current := r.store.Snapshot().OTPGroupLink
	if current == "" {
		current = "Not set"
	}
	r.setState(ev, s, StateAwaitOTPLink)
	r.send(ev.ChatID, Reply{
		Text:     bold("Please send the new OTP group link (current: " + current + "), or go back."),
		Keyboard: cancelMenu(),
	})
}

func (r *Router) setOTPLink(ev Event, s *Session) {
	link := ev.Text
	if !groupLinkPattern.MatchString(link) {
		r.send(ev.ChatID, Reply{
			Text: bold("Invalid link format. Please send a valid URL starting with http:// or https://."),
		})
		return
	}
	if err := r.store.Update(func(d *store.Data) error {
		d.OTPGroupLink = link
		return nil
	}); err != nil {
		r.logger.Error("saving otp link failed", "error", err)
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please try again later.")})
		return
	}
	r.send(ev.ChatID, Reply{Text: bold("✅ OTP Group Link updated to: " + link + "!")})
	r.backToAdminPanel(ev, s)
}

func (r *Router) turnOffOTPLink(ev Event, s *Session) {
	if err := r.store.Update(func(d *store.Data) error {
		d.OTPGroupLink = ""
		return nil
	}); err != nil {
		r.logger.Error("clearing otp link failed", "error", err)
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please try again later.")})
		return
	}
	r.send(ev.ChatID, Reply{
		Text: bold("✅ OTP Group Link has been turned off. It will no longer be shown to users."),
	})
	r.backToAdminPanel(ev, s)
}

// --- Submission categories ---

func (r *Router) openAddSubmissionCategory(ev Event, s *Session) {
	r.setState(ev, s, StateAwaitSubmissionNameAdd)
	r.send(ev.ChatID, Reply{
		Text:     bold("Please send the name for the new file submission category (e.g., Netflix), or go back."),
		Keyboard: cancelMenu(),
	})
}

func (r *Router) addSubmissionCategory(ev Event, s *Session) {
	name := ev.Text
	if r.store.Snapshot().HasSubmissionCategory(name) {
		r.send(ev.ChatID, Reply{Text: bold("This category name already exists. Please choose another name.")})
		return
	}
	if err := r.store.Update(func(d *store.Data) error {
		d.SubmissionCategories = append(d.SubmissionCategories, name)
		return nil
	}); err != nil {
		r.logger.Error("adding submission category failed", "category", name, "error", err)
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please try again later.")})
		return
	}
	r.send(ev.ChatID, Reply{Text: bold("✅ File submission category '" + name + "' added successfully!")})
	r.backToAdminPanel(ev, s)
}

func (r *Router) openRemoveSubmissionCategory(ev Event, s *Session) {
	categories := r.store.Snapshot().SubmissionCategories
	if len(categories) == 0 {
		r.send(ev.ChatID, Reply{Text: bold("There are no file submission categories to remove.")})
		r.backToAdminPanel(ev, s)
		return
	}
	r.setState(ev, s, StateAwaitSubmissionNameRemove)
	r.send(ev.ChatID, Reply{
		Text:     bold("Select a file submission category to remove:"),
		Keyboard: withAdminBack(categories),
	})
}

func (r *Router) removeSubmissionCategory(ev Event, s *Session) {
	name := ev.Text
	removed := false
	err := r.store.Update(func(d *store.Data) error {
		for i, existing := range d.SubmissionCategories {
			if existing == name {
				d.SubmissionCategories = append(d.SubmissionCategories[:i], d.SubmissionCategories[i+1:]...)
				removed = true
				break
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("removing submission category failed", "category", name, "error", err)
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please try again later.")})
		return
	}
	if removed {
		r.send(ev.ChatID, Reply{Text: bold("🗑️ File submission category '" + name + "' removed.")})
	} else {
		r.send(ev.ChatID, Reply{Text: bold("Error: Category not found.")})
	}
	r.backToAdminPanel(ev, s)
}

// --- Report delivery time ---

func (r *Router) openSetDeliveryTime(ev Event, s *Session) {
	current := "Not set"
	if stored := r.store.Snapshot().Schedule.Time; stored != "" {
		if t, err := time.Parse("15:04", stored); err == nil {
			current = t.Format("03:04 PM")
		} else {
			current = "Invalid format"
		}
	}

	r.setState(ev, s, StateAwaitDeliveryTime)
	text := bold("Please send the daily delivery time for the master file.") + "\n" +
		esc("(Current: ") + telegramutil.Bold(esc(current)) + esc(")") + "\n\n" +
		esc("Use 12-hour format with AM/PM (e.g., ") + code("10:30 AM") + esc(", ") + code("7:45 PM") + esc(").")
	r.send(ev.ChatID, Reply{Text: text, Keyboard: cancelMenu()})
}

func (r *Router) setDeliveryTime(ev Event, s *Session) {
	m := deliveryPattern.FindStringSubmatch(ev.Text)
	if m == nil {
		r.send(ev.ChatID, Reply{
			Text: bold("Invalid time format.") + " " +
				esc("Please use a valid 12-hour format like ") + code("10:30 AM") + esc(" or ") + code("7:45 PM") + esc("."),
		})
		return
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	meridiem := strings.ToUpper(m[3])
	switch {
	case meridiem == "PM" && hour != 12:
		hour += 12
	case meridiem == "AM" && hour == 12:
		hour = 0
	}
	time24 := fmt.Sprintf("%02d:%02d", hour, minute)

	if err := r.store.Update(func(d *store.Data) error {
		d.Schedule.Time = time24
		return nil
	}); err != nil {
		r.logger.Error("saving delivery time failed", "error", err)
		r.send(ev.ChatID, Reply{Text: bold("An error occurred. Please try again later.")})
		return
	}

	schedule := r.store.Snapshot().Schedule
	if err := r.scheduler.Reschedule(schedule.Time, schedule.Timezone); err != nil {
		r.logger.Error("rescheduling daily report failed", "error", err)
	}

	r.send(ev.ChatID, Reply{Text: bold("✅ Daily delivery time set to " + ev.Text + " Bangladesh Time.")})
	r.backToAdminPanel(ev, s)
}

// sortedUserIDs returns registered user IDs in ascending order so fan-out
// and keyboard order are stable.
func sortedUserIDs(users map[string]store.User) []int64 {
	ids := make([]int64, 0, len(users))
	for key := range users {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
