package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/internal/relationship"
	"github.com/mroshb/moodgram/internal/security"
	"github.com/mroshb/moodgram/pkg/logger"
)

// HandleAction runs follow, unfollow, block or unblock against the user
// named in args ("@username").
func (h *HandlerManager) HandleAction(ctx context.Context, tgID int64, args string, action relationship.Action, bot BotInterface) {
	username := security.NormalizeUsername(strings.TrimSpace(args))
	if username == "" {
		bot.SendMessage(tgID, fmt.Sprintf(MsgUsage, action.String()), nil)
		return
	}

	user, ok := h.currentUser(ctx, tgID, bot)
	if !ok {
		return
	}
	target, err := h.Users.GetByUsername(ctx, username)
	if err != nil {
		h.replyError(tgID, username, err, bot)
		return
	}

	outcome, err := h.Social.Act(ctx, user.ID, target.ID, action)
	if err != nil {
		h.replyError(tgID, username, err, bot)
		return
	}

	if !outcome.Applied {
		bot.SendMessage(tgID, fmt.Sprintf(MsgAlreadyDone, target.Username, outcome.Status), nil)
		return
	}

	switch action {
	case relationship.ActionFollow:
		if outcome.Status == models.StatusRequest {
			bot.SendMessage(tgID, fmt.Sprintf(MsgRequestSent, target.Username), nil)
			h.notifyRequest(user, target, bot)
		} else {
			bot.SendMessage(tgID, fmt.Sprintf(MsgFollowing, target.Username), nil)
		}
	case relationship.ActionUnfollow:
		bot.SendMessage(tgID, fmt.Sprintf(MsgUnfollowed, target.Username), nil)
	case relationship.ActionBlock:
		bot.SendMessage(tgID, fmt.Sprintf(MsgBlocked, target.Username), nil)
	case relationship.ActionUnblock:
		bot.SendMessage(tgID, fmt.Sprintf(MsgUnblocked, target.Username), nil)
	}
}

// notifyRequest lets a private account owner answer a new request in place
func (h *HandlerManager) notifyRequest(requester, target *models.User, bot BotInterface) {
	if target.TelegramID == nil {
		return
	}
	bot.SendMessage(*target.TelegramID,
		fmt.Sprintf(MsgRequestFrom, html.EscapeString(requester.DisplayName), requester.Username),
		RequestKeyboard(requester.ID),
	)
}

// HandleRequests lists pending requests, one message with buttons each
func (h *HandlerManager) HandleRequests(ctx context.Context, tgID int64, bot BotInterface) {
	user, ok := h.currentUser(ctx, tgID, bot)
	if !ok {
		return
	}

	pending, err := h.Social.PendingRequests(ctx, user.ID, 20)
	if err != nil {
		h.replyError(tgID, "", err, bot)
		return
	}
	if len(pending) == 0 {
		bot.SendMessage(tgID, MsgNoRequests, nil)
		return
	}

	for _, edge := range pending {
		requester, err := h.Users.Get(ctx, edge.SourceID)
		if err != nil {
			logger.Warn("Pending request from unknown user", "source_id", edge.SourceID, "error", err)
			continue
		}
		bot.SendMessage(tgID,
			fmt.Sprintf(MsgRequestFrom, html.EscapeString(requester.DisplayName), requester.Username),
			RequestKeyboard(requester.ID),
		)
	}
}

// HandleRequestCallback answers an approve or ignore button press
func (h *HandlerManager) HandleRequestCallback(ctx context.Context, query *tgbotapi.CallbackQuery, bot BotInterface) {
	tgID := query.From.ID
	action, requesterID, ok := ParseRequestCallback(query.Data)
	if !ok {
		return
	}

	user, ok := h.currentUser(ctx, tgID, bot)
	if !ok {
		return
	}
	requester, err := h.Users.Get(ctx, requesterID)
	if err != nil {
		h.replyError(tgID, "", err, bot)
		return
	}

	outcome, err := h.Social.Act(ctx, user.ID, requester.ID, action)
	if err != nil {
		h.replyError(tgID, requester.Username, err, bot)
		return
	}
	if !outcome.Applied {
		bot.AnswerCallbackQuery(query.ID, MsgRequestGone, false)
		return
	}

	if action == relationship.ActionApprove {
		bot.SendMessage(tgID, fmt.Sprintf(MsgApproved, requester.Username), nil)
		if requester.TelegramID != nil {
			bot.SendMessage(*requester.TelegramID, fmt.Sprintf(MsgRequestApproved, user.Username), nil)
		}
		return
	}
	bot.SendMessage(tgID, fmt.Sprintf(MsgIgnored, requester.Username), nil)
}
