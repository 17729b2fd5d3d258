package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplistbot/internal/service"
	"github.com/Kerhoff/shoplistbot/internal/state"
)

// ---------------------------------------------------------------------------
// OpenHandler – /open <number>
// ---------------------------------------------------------------------------

// OpenHandler mounts the detail view over one joined group. The working
// copy comes from the directory cache, not from a fresh fetch.
type OpenHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewOpenHandler creates a new OpenHandler.
func NewOpenHandler(svc *service.Service, logger *logrus.Logger) *OpenHandler {
	return &OpenHandler{svc: svc, logger: logger}
}

// Handle processes the /open command.
func (h *OpenHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return reply(bot, message.Chat.ID, "❌ Usage: `/open <number>` — the number from the /groups listing.")
	}

	session, chat, ok := authedChat(ctx, h.svc, bot, message.Chat.ID)
	if !ok {
		return nil
	}

	groups := chat.Directory.Groups()
	idx, err := parseIndex(args[0], len(groups))
	if err != nil {
		return reply(bot, message.Chat.ID, failureText(err))
	}

	detail, err := h.svc.OpenGroup(ctx, session, chat, groups[idx].ID)
	if err != nil {
		if h.svc.HandleAuthFailure(ctx, session.ChatID, err) {
			return reply(bot, message.Chat.ID, failureText(err))
		}
		return reply(bot, message.Chat.ID, failureText(err))
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id":  message.Chat.ID,
		"group_id": detail.GroupID(),
	}).Info("Opened group")
	return sendDetailView(bot, message.Chat.ID, detail)
}

// ---------------------------------------------------------------------------
// LeaveHandler – /leave
// ---------------------------------------------------------------------------

// LeaveHandler exits the open group. Owners are pointed at /delgroup; the
// two affordances never overlap.
type LeaveHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewLeaveHandler creates a new LeaveHandler.
func NewLeaveHandler(svc *service.Service, logger *logrus.Logger) *LeaveHandler {
	return &LeaveHandler{svc: svc, logger: logger}
}

// Handle processes the /leave command.
func (h *LeaveHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	session, chat, detail, ok := currentDetail(ctx, h.svc, bot, message.Chat.ID)
	if !ok {
		return nil
	}

	if err := detail.Leave(ctx); err != nil {
		if h.svc.HandleAuthFailure(ctx, session.ChatID, err) {
			return reply(bot, message.Chat.ID, failureText(err))
		}
		return reply(bot, message.Chat.ID, "❌ Could not leave. "+failureText(err))
	}

	// Confirmed: drop the detail view and the stale directory entry.
	chat.ClearDetail()
	chat.Directory.Remove(detail.GroupID())

	h.logger.WithFields(logrus.Fields{
		"chat_id":  message.Chat.ID,
		"group_id": detail.GroupID(),
	}).Info("Left group")

	if err := reply(bot, message.Chat.ID, "👋 You left the group."); err != nil {
		return err
	}
	return reply(bot, message.Chat.ID, renderGroups(chat.Directory.Groups()))
}

// ---------------------------------------------------------------------------
// DeleteGroupHandler – /delgroup confirm
// ---------------------------------------------------------------------------

// DeleteGroupHandler deletes the open group for everyone. Owner only.
type DeleteGroupHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewDeleteGroupHandler creates a new DeleteGroupHandler.
func NewDeleteGroupHandler(svc *service.Service, logger *logrus.Logger) *DeleteGroupHandler {
	return &DeleteGroupHandler{svc: svc, logger: logger}
}

// Handle processes the /delgroup command.
func (h *DeleteGroupHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	session, chat, detail, ok := currentDetail(ctx, h.svc, bot, message.Chat.ID)
	if !ok {
		return nil
	}

	if !detail.IsOwner() {
		return reply(bot, message.Chat.ID, failureText(state.ErrNotOwner))
	}

	if len(args) != 1 || args[0] != "confirm" {
		return reply(bot, message.Chat.ID,
			fmt.Sprintf("⚠️ This deletes *%s* for every member and cannot be undone.\nIf you are sure, send `/delgroup confirm`.",
				detail.Group().Name))
	}

	if err := detail.Delete(ctx); err != nil {
		if h.svc.HandleAuthFailure(ctx, session.ChatID, err) {
			return reply(bot, message.Chat.ID, failureText(err))
		}
		return reply(bot, message.Chat.ID, "❌ Could not delete the group. "+failureText(err))
	}

	chat.ClearDetail()
	chat.Directory.Remove(detail.GroupID())

	h.logger.WithFields(logrus.Fields{
		"chat_id":  message.Chat.ID,
		"group_id": detail.GroupID(),
	}).Info("Deleted group")

	if err := reply(bot, message.Chat.ID, "🗑 Group deleted."); err != nil {
		return err
	}
	return reply(bot, message.Chat.ID, renderGroups(chat.Directory.Groups()))
}
