package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestBuildKeyboardLayout(t *testing.T) {
	t.Parallel()

	kb := buildKeyboard([]string{"a", "b", "c", "d", "e"}, 2)
	if got := len(kb.Keyboard); got != 3 {
		t.Fatalf("rows = %d, want 3", got)
	}
	if got := len(kb.Keyboard[0]); got != 2 {
		t.Fatalf("first row = %d buttons, want 2", got)
	}
	if got := len(kb.Keyboard[2]); got != 1 {
		t.Fatalf("last row = %d buttons, want 1", got)
	}
	if !kb.ResizeKeyboard {
		t.Fatal("keyboard not resizable")
	}

	single := buildKeyboard([]string{"a", "b"}, 1)
	if got := len(single.Keyboard); got != 2 {
		t.Fatalf("one-per-row rows = %d, want 2", got)
	}
}

func TestEventFromMapsCommandsAndDocuments(t *testing.T) {
	t.Parallel()

	from := &tgbotapi.User{ID: 7, FirstName: "Ada", UserName: "ada", LanguageCode: "en"}
	chat := &tgbotapi.Chat{ID: 7}

	cmd := tgbotapi.Update{Message: &tgbotapi.Message{
		From: from, Chat: chat, Text: "/start",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	}}
	ev, ok := eventFrom(cmd)
	if !ok {
		t.Fatal("command update dropped")
	}
	if ev.Command != "start" || ev.Text != "" {
		t.Fatalf("command event = %+v", ev)
	}

	doc := tgbotapi.Update{Message: &tgbotapi.Message{
		From: from, Chat: chat,
		Document: &tgbotapi.Document{FileID: "f1", FileName: "numbers.txt"},
	}}
	ev, ok = eventFrom(doc)
	if !ok {
		t.Fatal("document update dropped")
	}
	if ev.Document == nil || ev.Document.FileName != "numbers.txt" {
		t.Fatalf("document event = %+v", ev)
	}

	if _, ok := eventFrom(tgbotapi.Update{}); ok {
		t.Fatal("empty update not dropped")
	}
}
