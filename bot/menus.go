package bot

// Menu button labels. Dispatch matches on the literal label, so these are
// the single source of truth for both keyboards and routing.
const (
	labelGetNumber  = "🔢 Get Number"
	labelSubmitFile = "✍️ Submit File"
	labelFakeName   = "🎭 Fake Name"
	labelGet2FA     = "📲 Get 2FA"
	labelInfo       = "ℹ️ Info"
	labelSupport    = "🆘 Support"

	labelAdminPanel = "⚙️ Admin Panel"
	labelBroadcast  = "📢 Broadcast"

	labelAddButton      = "➕ Add Button"
	labelRemoveButton   = "🗑️ Remove Button"
	labelUploadFile     = "📤 Upload File"
	labelAddFileName    = "✍️ Add File Name"
	labelRemoveFileName = "❌ Remove File Name"
	labelSetTime        = "⏰ Set time (Bangladesh)"
	labelUserList       = "👥 User List"
	labelSetOTPLink     = "🔗 Set OTP Group Link"
	labelOffOTPLink     = "🚫 Off OTP Group Link"

	labelBackToMain  = "⬅️ Back to Main Menu"
	labelBackToAdmin = "↩️ Back to Admin Panel"

	labelAddMain    = "1️⃣ Add Main Button"
	labelAddSub     = "2️⃣ Add Sub Button"
	labelRemoveMain = "1️⃣ Remove Main Button"
	labelRemoveSub  = "2️⃣ Remove Sub Button"

	labelMale   = "👨 Male"
	labelFemale = "👩 Female"

	labelUseSavedKey = "Use saved key"
	labelEnterNewKey = "Enter new key"

	labelBlockUser   = "🚫 Block User"
	labelUnblockUser = "✅ Unblock User"
)

func userMainMenu() []string {
	return []string{
		labelGetNumber, labelSubmitFile, labelFakeName,
		labelGet2FA, labelInfo, labelSupport,
	}
}

func adminMainMenu() []string {
	return append(userMainMenu(), labelAdminPanel, labelBroadcast)
}

func adminPanelMenu() []string {
	return []string{
		labelAddButton, labelRemoveButton, labelUploadFile,
		labelAddFileName, labelRemoveFileName, labelSetTime,
		labelUserList, labelSetOTPLink, labelOffOTPLink,
		labelBackToMain,
	}
}

func addTypeMenu() []string {
	return []string{labelAddMain, labelAddSub, labelBackToAdmin}
}

func removeTypeMenu() []string {
	return []string{labelRemoveMain, labelRemoveSub, labelBackToAdmin}
}

func genderMenu() []string {
	return []string{labelMale, labelFemale, labelBackToMain}
}

func cancelMenu() []string {
	return []string{labelBackToAdmin}
}

// withBack appends the back-to-main cancel label to a dynamic button list.
func withBack(buttons []string) []string {
	return append(append([]string(nil), buttons...), labelBackToMain)
}

// withAdminBack appends the back-to-admin-panel label.
func withAdminBack(buttons []string) []string {
	return append(append([]string(nil), buttons...), labelBackToAdmin)
}
