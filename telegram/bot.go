package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/moodgram/internal/config"
	"github.com/mroshb/moodgram/internal/handlers"
	"github.com/mroshb/moodgram/internal/relationship"
	"github.com/mroshb/moodgram/pkg/logger"
)

const (
	workerCount    = 10
	workerQueue    = 100
	updateDeadline = 15 * time.Second
)

type Bot struct {
	api      *tgbotapi.BotAPI
	config   *config.Config
	handlers *handlers.HandlerManager

	// Worker pool for parallel processing
	workerChans []chan tgbotapi.Update

	stop     chan struct{}
	stopOnce sync.Once
}

func InitBot(cfg *config.Config, mgr *handlers.HandlerManager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if cfg.AppEnv == "development" {
		api.Debug = true
	}

	logger.Info("Authorized on account", "username", api.Self.UserName)

	bot := &Bot{
		api:         api,
		config:      cfg,
		handlers:    mgr,
		workerChans: make([]chan tgbotapi.Update, workerCount),
		stop:        make(chan struct{}),
	}

	// Start workers
	for i := 0; i < workerCount; i++ {
		bot.workerChans[i] = make(chan tgbotapi.Update, workerQueue)
		go bot.startWorker(bot.workerChans[i])
	}

	// Start update listener
	go bot.startUpdateListener()

	return bot, nil
}

func (b *Bot) startUpdateListener() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for {
		logger.Info("Starting update listener...")
		updates := b.api.GetUpdatesChan(u)

		for update := range updates {
			// Find userID for hashing
			var userID int64
			if update.Message != nil && update.Message.From != nil {
				userID = update.Message.From.ID
			} else if update.CallbackQuery != nil {
				userID = update.CallbackQuery.From.ID
			}

			if userID != 0 {
				// Hashed dispatch keeps one user's updates in order
				b.workerChans[workerIndex(userID, len(b.workerChans))] <- update
			} else {
				go b.handleUpdate(update)
			}
		}

		select {
		case <-b.stop:
			for _, ch := range b.workerChans {
				close(ch)
			}
			return
		default:
		}

		logger.Warn("Update channel closed. Restarting in 5 seconds...")
		time.Sleep(5 * time.Second)
	}
}

func workerIndex(userID int64, n int) int {
	idx := userID % int64(n)
	if idx < 0 {
		idx = -idx
	}
	return int(idx)
}

func (b *Bot) startWorker(ch chan tgbotapi.Update) {
	for update := range ch {
		b.handleUpdate(update)
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in handleUpdate", "error", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), updateDeadline)
	defer cancel()

	if update.Message != nil {
		b.handleMessage(ctx, update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	logger.Debug("Received message", "user_id", message.From.ID, "text", message.Text)

	var command, args string
	if message.IsCommand() {
		command, args = message.Command(), message.CommandArguments()
	} else {
		var ok bool
		if command, args, ok = routeText(message.Text); !ok {
			b.sendMessage(message.From.ID, handlers.MsgHelp, MainMenuKeyboard())
			return
		}
	}
	b.handleCommand(ctx, message.From, command, args)
}

// routeText maps main menu buttons and bare "follow @user" style text to
// a command and its arguments.
func routeText(text string) (command, args string, ok bool) {
	switch normalizeButton(strings.TrimSpace(text)) {
	case handlers.BtnRequests:
		return "requests", "", true
	case handlers.BtnProfile:
		return "me", "", true
	case handlers.BtnHelp:
		return "help", "", true
	case handlers.BtnPrivate:
		return "private", "", true
	case handlers.BtnPublic:
		return "public", "", true
	}

	fields := strings.Fields(text)
	if len(fields) == 2 {
		if _, ok := commandAction(strings.ToLower(fields[0])); ok {
			return strings.ToLower(fields[0]), fields[1], true
		}
	}
	return "", "", false
}

// commandAction maps relationship commands to their action
func commandAction(command string) (relationship.Action, bool) {
	switch command {
	case "follow":
		return relationship.ActionFollow, true
	case "unfollow":
		return relationship.ActionUnfollow, true
	case "block":
		return relationship.ActionBlock, true
	case "unblock":
		return relationship.ActionUnblock, true
	}
	return 0, false
}

func normalizeButton(s string) string {
	return strings.ReplaceAll(s, "\u200c", "")
}

func (b *Bot) handleCommand(ctx context.Context, from *tgbotapi.User, command, args string) {
	userID := from.ID

	if action, ok := commandAction(command); ok {
		b.handlers.HandleAction(ctx, userID, args, action, b)
		return
	}

	switch command {
	case "start":
		b.handlers.HandleStart(ctx, from, b)
	case "help":
		b.handlers.HandleHelp(userID, b)
	case "me":
		b.handlers.HandleProfile(ctx, userID, b)
	case "requests":
		b.handlers.HandleRequests(ctx, userID, b)
	case "private":
		b.handlers.HandlePrivacy(ctx, userID, false, b)
	case "public":
		b.handlers.HandlePrivacy(ctx, userID, true, b)
	default:
		b.handlers.HandleHelp(userID, b)
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	logger.Debug("Callback query", "data", query.Data, "user_id", query.From.ID)

	if !handlers.IsRequestCallback(query.Data) {
		b.AnswerCallbackQuery(query.ID, "", false)
		return
	}

	// Remove inline keyboard so a request is answered once
	if query.Message != nil {
		edit := tgbotapi.NewEditMessageReplyMarkup(query.Message.Chat.ID, query.Message.MessageID, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
		if _, err := b.api.Request(edit); err != nil {
			logger.Warn("Failed to remove inline keyboard", "chat_id", query.Message.Chat.ID, "error", err)
		}
	}

	answered := &answerOnce{bot: b, queryID: query.ID}
	b.handlers.HandleRequestCallback(ctx, query, answered)
	answered.finish()
}

// answerOnce makes sure every callback query gets exactly one answer,
// whether or not the handler sent its own.
type answerOnce struct {
	bot     *Bot
	queryID string
	done    bool
}

func (a *answerOnce) SendMessage(chatID int64, text string, keyboard interface{}) int {
	return a.bot.SendMessage(chatID, text, keyboard)
}

func (a *answerOnce) AnswerCallbackQuery(queryID string, text string, showAlert bool) {
	a.done = true
	a.bot.AnswerCallbackQuery(queryID, text, showAlert)
}

func (a *answerOnce) GetMainMenuKeyboard() interface{} {
	return a.bot.GetMainMenuKeyboard()
}

func (a *answerOnce) finish() {
	if !a.done {
		a.AnswerCallbackQuery(a.queryID, "", false)
	}
}

func (b *Bot) sendMessage(chatID int64, text string, keyboard interface{}) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	switch kb := keyboard.(type) {
	case tgbotapi.ReplyKeyboardMarkup:
		msg.ReplyMarkup = kb
	case tgbotapi.InlineKeyboardMarkup:
		msg.ReplyMarkup = kb
	case tgbotapi.ReplyKeyboardRemove:
		msg.ReplyMarkup = kb
	}

	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		sentMsg, err := b.api.Send(msg)
		if err != nil {
			logger.Error("Failed to send message", "error", err, "chat_id", chatID, "attempt", i+1)

			if isTransient(err) {
				time.Sleep(time.Duration(i+1) * time.Second)
				continue
			}
			return 0
		}
		return sentMsg.MessageID
	}
	return 0
}

func isTransient(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "network is unreachable")
}

func (b *Bot) SendMessage(chatID int64, text string, keyboard interface{}) int {
	return b.sendMessage(chatID, text, keyboard)
}

func (b *Bot) AnswerCallbackQuery(queryID string, text string, showAlert bool) {
	callback := tgbotapi.NewCallback(queryID, text)
	callback.ShowAlert = showAlert
	if _, err := b.api.Request(callback); err != nil {
		logger.Error("Failed to answer callback query", "error", err, "query_id", queryID)
	}
}

func (b *Bot) GetMainMenuKeyboard() interface{} {
	return MainMenuKeyboard()
}

func (b *Bot) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		b.api.StopReceivingUpdates()
		logger.Info("Bot stopped receiving updates")
	})
}
