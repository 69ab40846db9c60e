package handlers

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/moodgram/internal/relationship"
)

// Main menu buttons
const (
	BtnRequests = "📥 Requests"
	BtnProfile  = "👤 Profile"
	BtnHelp     = "❓ Help"
	BtnPrivate  = "🔒 Private"
	BtnPublic   = "🌍 Public"
)

// Callback data prefixes for pending request buttons
const (
	cbApprovePrefix = "req_approve_"
	cbIgnorePrefix  = "req_ignore_"
)

// RequestKeyboard offers approve and ignore for a pending request
func RequestKeyboard(requesterID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", cbApprovePrefix+requesterID),
			tgbotapi.NewInlineKeyboardButtonData("🙈 Ignore", cbIgnorePrefix+requesterID),
		),
	)
}

// ParseRequestCallback decodes RequestKeyboard callback data
func ParseRequestCallback(data string) (relationship.Action, string, bool) {
	switch {
	case strings.HasPrefix(data, cbApprovePrefix):
		id := strings.TrimPrefix(data, cbApprovePrefix)
		return relationship.ActionApprove, id, id != ""
	case strings.HasPrefix(data, cbIgnorePrefix):
		id := strings.TrimPrefix(data, cbIgnorePrefix)
		return relationship.ActionIgnore, id, id != ""
	}
	return 0, "", false
}

// IsRequestCallback reports whether data belongs to a RequestKeyboard
func IsRequestCallback(data string) bool {
	_, _, ok := ParseRequestCallback(data)
	return ok
}
