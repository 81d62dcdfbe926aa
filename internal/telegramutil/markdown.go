// Package telegramutil holds small helpers for Telegram message formatting.
package telegramutil

import "strings"

// Characters Telegram requires escaped inside MarkdownV2 text.
const markdownV2Special = "\\_*[]()~`>#+-=|{}.!"

// EscapeMarkdownV2 backslash-escapes every MarkdownV2 special character so
// arbitrary user input can be embedded in a formatted message.
func EscapeMarkdownV2(text string) string {
	if text == "" {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + 8)
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if strings.IndexByte(markdownV2Special, ch) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// Bold wraps already-escaped text in MarkdownV2 bold markers.
func Bold(text string) string {
	return "*" + text + "*"
}

// Code wraps already-escaped text in MarkdownV2 inline-code markers.
func Code(text string) string {
	return "`" + text + "`"
}
