package handlers

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/internal/services"
	"github.com/mroshb/moodgram/pkg/errors"
	"github.com/mroshb/moodgram/pkg/logger"
)

// Bot interface to avoid circular dependency
type BotInterface interface {
	SendMessage(chatID int64, text string, keyboard interface{}) int
	AnswerCallbackQuery(queryID string, text string, showAlert bool)
	GetMainMenuKeyboard() interface{}
}

// HandleStart registers the Telegram user on first contact. The Telegram
// username is reused when it is valid and free, otherwise tg_<id>.
func (h *HandlerManager) HandleStart(ctx context.Context, from *tgbotapi.User, bot BotInterface) {
	tgID := from.ID

	if user, err := h.Users.GetByTelegramID(ctx, tgID); err == nil {
		bot.SendMessage(tgID, fmt.Sprintf(MsgWelcomeBack, html.EscapeString(user.DisplayName)), bot.GetMainMenuKeyboard())
		return
	} else if !errors.Is(err, errors.ErrCodeNotFound) {
		h.replyError(tgID, "", err, bot)
		return
	}

	displayName := strings.TrimSpace(from.FirstName + " " + from.LastName)
	candidates := []string{from.UserName, "tg_" + strconv.FormatInt(tgID, 10)}

	var user *models.User
	var err error
	for _, username := range candidates {
		if username == "" {
			continue
		}
		user, err = h.Users.Register(ctx, services.RegisterInput{
			Username:        username,
			DisplayName:     displayName,
			IsAccountPublic: true,
			TelegramID:      &tgID,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, errors.ErrCodeValidation) && !errors.Is(err, errors.ErrCodeAlreadyExists) {
			break
		}
		logger.Debug("Telegram username not usable, trying fallback", "telegram_id", tgID, "username", username, "error", err)
	}
	if err != nil {
		h.replyError(tgID, "", err, bot)
		return
	}

	bot.SendMessage(tgID, fmt.Sprintf(MsgWelcome, html.EscapeString(user.DisplayName)), bot.GetMainMenuKeyboard())
}

// currentUser resolves the sender, telling unregistered users to /start
func (h *HandlerManager) currentUser(ctx context.Context, tgID int64, bot BotInterface) (*models.User, bool) {
	user, err := h.Users.GetByTelegramID(ctx, tgID)
	if errors.Is(err, errors.ErrCodeNotFound) {
		bot.SendMessage(tgID, MsgNotRegistered, nil)
		return nil, false
	}
	if err != nil {
		h.replyError(tgID, "", err, bot)
		return nil, false
	}
	return user, true
}

func (h *HandlerManager) HandleHelp(tgID int64, bot BotInterface) {
	bot.SendMessage(tgID, MsgHelp, bot.GetMainMenuKeyboard())
}

func (h *HandlerManager) HandleProfile(ctx context.Context, tgID int64, bot BotInterface) {
	user, ok := h.currentUser(ctx, tgID, bot)
	if !ok {
		return
	}

	privacy := "🌍 public"
	if !user.IsAccountPublic {
		privacy = "🔒 private"
	}
	bot.SendMessage(tgID, fmt.Sprintf(MsgProfile,
		html.EscapeString(user.DisplayName), user.Username, privacy,
		user.FollowByCount, user.FollowCount, user.RequestByCount, user.RequestCount, user.BlockCount,
	), nil)
}

func (h *HandlerManager) HandlePrivacy(ctx context.Context, tgID int64, public bool, bot BotInterface) {
	user, ok := h.currentUser(ctx, tgID, bot)
	if !ok {
		return
	}
	if err := h.Users.SetAccountPublic(ctx, user.ID, public); err != nil {
		h.replyError(tgID, "", err, bot)
		return
	}
	if public {
		bot.SendMessage(tgID, MsgPrivacyPublic, nil)
	} else {
		bot.SendMessage(tgID, MsgPrivacyPrivate, nil)
	}
}

// replyError turns an application error into a chat reply
func (h *HandlerManager) replyError(tgID int64, username string, err error, bot BotInterface) {
	switch errors.CodeOf(err) {
	case errors.ErrCodeNotFound:
		bot.SendMessage(tgID, fmt.Sprintf(MsgUserNotFound, username), nil)
	case errors.ErrCodeValidation:
		bot.SendMessage(tgID, MsgSelfAction, nil)
	case errors.ErrCodeConflict, errors.ErrCodeRateLimitExceeded:
		bot.SendMessage(tgID, MsgBusy, nil)
	default:
		logger.Error("Bot request failed", "telegram_id", tgID, "error", err)
		bot.SendMessage(tgID, MsgFailed, nil)
	}
}
