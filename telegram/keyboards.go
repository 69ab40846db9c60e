package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/moodgram/internal/handlers"
)

// MainMenuKeyboard creates the persistent reply keyboard
func MainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton

	// Row 1 - Requests - Profile
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(handlers.BtnRequests),
		tgbotapi.NewKeyboardButton(handlers.BtnProfile),
	))

	// Row 2 - Private - Public - Help
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(handlers.BtnPrivate),
		tgbotapi.NewKeyboardButton(handlers.BtnPublic),
		tgbotapi.NewKeyboardButton(handlers.BtnHelp),
	))

	return tgbotapi.NewReplyKeyboard(rows...)
}
