// Package telegram adapts the Telegram Bot API to the transport-agnostic
// surfaces the rest of the service is written against.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shihab98bc/Render-Bot/bot"
	"github.com/shihab98bc/Render-Bot/internal/fsstore"
)

// Client wraps a long-polling Bot API connection. It implements
// bot.Messenger.
type Client struct {
	api    *tgbotapi.BotAPI
	http   *http.Client
	logger *slog.Logger
}

func New(token string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram authorization failed: %w", err)
	}
	return &Client{
		api:    api,
		http:   &http.Client{},
		logger: logger,
	}, nil
}

// Username returns the authorized bot account name.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// Send delivers one MarkdownV2 message, attaching a reply keyboard when the
// reply carries button labels.
func (c *Client) Send(chatID int64, reply bot.Reply) error {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = reply.DisableWebPreview
	switch {
	case reply.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	case len(reply.Keyboard) > 0:
		msg.ReplyMarkup = buildKeyboard(reply.Keyboard, reply.PerRow)
	}
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("sending message to chat %d: %w", chatID, err)
	}
	return nil
}

func (c *Client) SendDocument(chatID int64, path, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	doc.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := c.api.Send(doc); err != nil {
		return fmt.Errorf("sending document to chat %d: %w", chatID, err)
	}
	return nil
}

// Download fetches a Telegram file reference into destPath. The write is
// atomic: a re-uploaded number file is swapped in whole, never observed
// half-written by a concurrent dispense.
func (c *Client) Download(fileID, destPath string) error {
	f, err := c.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return fmt.Errorf("resolving file %s: %w", fileID, err)
	}

	resp, err := c.http.Get(f.Link(c.api.Token))
	if err != nil {
		return fmt.Errorf("fetching file %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching file %s: unexpected status %s", fileID, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading file %s: %w", fileID, err)
	}
	if err := fsstore.WriteTextAtomic(destPath, string(data), fsstore.FileOptions{}); err != nil {
		return fmt.Errorf("writing file %s: %w", fileID, err)
	}
	return nil
}

// Poll runs the long-poll loop, translating message updates into events
// until ctx is canceled.
func (c *Client) Poll(ctx context.Context, handle func(bot.Event)) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := c.api.GetUpdatesChan(u)
	c.logger.Info("long polling started", "bot", c.Username())

	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if ev, ok := eventFrom(upd); ok {
				handle(ev)
			}
		}
	}
}

// eventFrom maps one update to an Event. Non-message updates and messages
// without a sender are dropped.
func eventFrom(upd tgbotapi.Update) (bot.Event, bool) {
	m := upd.Message
	if m == nil || m.From == nil {
		return bot.Event{}, false
	}

	ev := bot.Event{
		UserID:       m.From.ID,
		ChatID:       m.Chat.ID,
		FirstName:    m.From.FirstName,
		LastName:     m.From.LastName,
		Username:     m.From.UserName,
		LanguageCode: m.From.LanguageCode,
	}
	if m.IsCommand() {
		ev.Command = m.Command()
	} else {
		ev.Text = m.Text
	}
	if m.Document != nil {
		ev.Document = &bot.Document{
			FileID:   m.Document.FileID,
			FileName: m.Document.FileName,
		}
	}
	return ev, true
}

// buildKeyboard lays labels out perRow buttons per row; zero means two.
func buildKeyboard(labels []string, perRow int) tgbotapi.ReplyKeyboardMarkup {
	if perRow <= 0 {
		perRow = 2
	}
	var rows [][]tgbotapi.KeyboardButton
	for start := 0; start < len(labels); start += perRow {
		end := start + perRow
		if end > len(labels) {
			end = len(labels)
		}
		row := make([]tgbotapi.KeyboardButton, 0, end-start)
		for _, label := range labels[start:end] {
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}
