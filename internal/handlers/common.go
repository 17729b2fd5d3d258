package handlers

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kerhoff/shoplistbot/internal/api"
	"github.com/Kerhoff/shoplistbot/internal/models"
	"github.com/Kerhoff/shoplistbot/internal/service"
	"github.com/Kerhoff/shoplistbot/internal/session"
	"github.com/Kerhoff/shoplistbot/internal/state"
)

const loginPrompt = "🔑 You are not logged in. Use /login <username> <password> or /register <name> <username> <password>."

// reply sends a Markdown-formatted message to the chat.
func reply(bot *tgbotapi.BotAPI, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// authedChat resolves the chat's session and mounted view models, replying
// with the appropriate notice itself when that fails. ok is false when the
// handler should stop.
func authedChat(ctx context.Context, svc *service.Service, bot *tgbotapi.BotAPI, chatID int64) (*models.Session, *state.Chat, bool) {
	session, err := svc.Authed(ctx, chatID)
	if err != nil {
		reply(bot, chatID, loginPrompt)
		return nil, nil, false
	}

	chat, err := svc.ChatState(ctx, session)
	if err != nil {
		if svc.HandleAuthFailure(ctx, chatID, err) {
			reply(bot, chatID, failureText(err))
			return nil, nil, false
		}
		reply(bot, chatID, "❌ Could not load your groups. "+failureText(err)+"\nTry the command again to retry.")
		return nil, nil, false
	}
	return session, chat, true
}

// currentDetail additionally requires an open group.
func currentDetail(ctx context.Context, svc *service.Service, bot *tgbotapi.BotAPI, chatID int64) (*models.Session, *state.Chat, *state.Detail, bool) {
	session, chat, ok := authedChat(ctx, svc, bot, chatID)
	if !ok {
		return nil, nil, nil, false
	}
	detail := chat.Detail()
	if detail == nil {
		reply(bot, chatID, "📂 No group is open. Use /groups and then /open <number>.")
		return nil, nil, nil, false
	}
	return session, chat, detail, true
}

// registerFailureText frames a failed /register. Once the account exists,
// a follow-up sign-in failure is a login problem: retrying /register would
// only hit a duplicate-username conflict.
func registerFailureText(err error) string {
	if errors.Is(err, session.ErrLoginAfterRegister) {
		return "⚠️ Your account was created, but signing you in failed. " + failureText(err) +
			"\nSign in with `/login <username> <password>`."
	}
	return "❌ Could not sign you up. " + failureText(err)
}

// failureText maps local rule violations and remote failure kinds to the
// transient notice shown to the user.
func failureText(err error) string {
	switch {
	case errors.Is(err, state.ErrEmptyTitle):
		return "⚠️ The name must not be empty."
	case errors.Is(err, state.ErrEmptyQuery):
		return "⚠️ Give me something to search for."
	case errors.Is(err, state.ErrSelfRemoval):
		return "⚠️ You can't remove yourself from the member list. Use /leave instead."
	case errors.Is(err, state.ErrActionPending):
		return "⏳ That entry is already being processed. Hold on."
	case errors.Is(err, state.ErrNotOwner):
		return "⚠️ Only the group owner can do that."
	case errors.Is(err, state.ErrOwnerCannotLeave):
		return "⚠️ Owners can't leave their own group. Use /delgroup to delete it."
	case errors.Is(err, state.ErrNotJoined):
		return "⚠️ You haven't joined that group yet. Use /join <number> <password>."
	case errors.Is(err, state.ErrUnknownEntry):
		return "❌ I can't find that entry anymore. Refresh with /groups or /open."
	case errors.Is(err, service.ErrNotAuthenticated):
		return loginPrompt
	}

	kind, ok := api.KindOf(err)
	if !ok {
		return "❌ Something went wrong. Please try again."
	}
	switch kind {
	case api.Unauthorized:
		return "🔒 Your session is no longer valid. Please /login again."
	case api.NotFound:
		return "❌ That no longer exists on the server."
	case api.Conflict:
		return "⚠️ The server rejected this as a duplicate."
	case api.ValidationFailed:
		return "⚠️ The server rejected the request. Check the values and try again."
	case api.NetworkFailure:
		return "📡 Can't reach the shopping-list service right now. Please try again."
	default:
		return "❌ The shopping-list service had a problem. Please try again later."
	}
}
