package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplistbot/internal/service"
)

// ---------------------------------------------------------------------------
// MembersHandler – /members
// ---------------------------------------------------------------------------

// MembersHandler re-renders the open group, which includes its member list.
type MembersHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewMembersHandler creates a new MembersHandler.
func NewMembersHandler(svc *service.Service, logger *logrus.Logger) *MembersHandler {
	return &MembersHandler{svc: svc, logger: logger}
}

// Handle processes the /members command.
func (h *MembersHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	_, _, detail, ok := currentDetail(ctx, h.svc, bot, message.Chat.ID)
	if !ok {
		return nil
	}
	return sendDetailView(bot, message.Chat.ID, detail)
}

// ---------------------------------------------------------------------------
// FindUserHandler – /finduser <name>
// ---------------------------------------------------------------------------

// FindUserHandler searches users to invite into the open group. Inviting
// is an owner affordance, so the search is too. A blank query never leaves
// the chat; results replace the previous ones.
type FindUserHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewFindUserHandler creates a new FindUserHandler.
func NewFindUserHandler(svc *service.Service, logger *logrus.Logger) *FindUserHandler {
	return &FindUserHandler{svc: svc, logger: logger}
}

// Handle processes the /finduser command.
func (h *FindUserHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	session, _, detail, ok := currentDetail(ctx, h.svc, bot, message.Chat.ID)
	if !ok {
		return nil
	}

	users, err := detail.SearchUsers(ctx, strings.Join(args, " "))
	if err != nil {
		if h.svc.HandleAuthFailure(ctx, session.ChatID, err) {
			return reply(bot, message.Chat.ID, failureText(err))
		}
		return reply(bot, message.Chat.ID, "❌ User search failed. "+failureText(err))
	}

	return reply(bot, message.Chat.ID, renderUsers(users))
}

// ---------------------------------------------------------------------------
// InviteHandler – /invite <number>
// ---------------------------------------------------------------------------

// InviteHandler adds a user from the last /finduser result to the open
// group. Owner only. On success the server's membership record is appended
// and the search results are cleared.
type InviteHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewInviteHandler creates a new InviteHandler.
func NewInviteHandler(svc *service.Service, logger *logrus.Logger) *InviteHandler {
	return &InviteHandler{svc: svc, logger: logger}
}

// Handle processes the /invite command.
func (h *InviteHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return reply(bot, message.Chat.ID, "❌ Usage: `/invite <number>` — the number from the last /finduser result.")
	}

	session, _, detail, ok := currentDetail(ctx, h.svc, bot, message.Chat.ID)
	if !ok {
		return nil
	}

	users := detail.UserResults()
	if len(users) == 0 {
		return reply(bot, message.Chat.ID, "🔎 No user search results. Use `/finduser <name>` first.")
	}
	idx, err := parseIndex(args[0], len(users))
	if err != nil {
		return reply(bot, message.Chat.ID, failureText(err))
	}
	target := users[idx]

	member, err := detail.AddMember(ctx, target.ID)
	if err != nil {
		if h.svc.HandleAuthFailure(ctx, session.ChatID, err) {
			return reply(bot, message.Chat.ID, failureText(err))
		}
		return reply(bot, message.Chat.ID,
			fmt.Sprintf("❌ Could not add %s. ", target.DisplayName())+failureText(err))
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id":   message.Chat.ID,
		"group_id":  detail.GroupID(),
		"member_id": member.ID,
	}).Info("Member invited")

	if err := reply(bot, message.Chat.ID,
		fmt.Sprintf("🎉 %s is now a member.", member.DisplayName())); err != nil {
		return err
	}
	return sendDetailView(bot, message.Chat.ID, detail)
}

// ---------------------------------------------------------------------------
// KickHandler – /kick <number>
// ---------------------------------------------------------------------------

// KickHandler removes a member from the open group. Removing yourself is
// rejected locally; the member stays listed until the server confirms.
type KickHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewKickHandler creates a new KickHandler.
func NewKickHandler(svc *service.Service, logger *logrus.Logger) *KickHandler {
	return &KickHandler{svc: svc, logger: logger}
}

// Handle processes the /kick command.
func (h *KickHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return reply(bot, message.Chat.ID, "❌ Usage: `/kick <number>` — the member number from the group view.")
	}

	session, _, detail, ok := currentDetail(ctx, h.svc, bot, message.Chat.ID)
	if !ok {
		return nil
	}

	members := detail.Group().Members
	idx, err := parseIndex(args[0], len(members))
	if err != nil {
		return reply(bot, message.Chat.ID, failureText(err))
	}
	target := members[idx]

	if err := detail.RemoveMember(ctx, target.ID); err != nil {
		if h.svc.HandleAuthFailure(ctx, session.ChatID, err) {
			return reply(bot, message.Chat.ID, failureText(err))
		}
		return reply(bot, message.Chat.ID, failureText(err))
	}

	if err := reply(bot, message.Chat.ID,
		fmt.Sprintf("🚪 %s was removed from the group.", target.DisplayName())); err != nil {
		return err
	}
	return sendDetailView(bot, message.Chat.ID, detail)
}

// ---------------------------------------------------------------------------
// MemberCallbackHandler – inline button "member:k:<id>"
// ---------------------------------------------------------------------------

// MemberCallbackHandler serves the per-member kick buttons. The view model
// enforces the self-removal guard and per-member serialization; buttons
// for yourself are never rendered in the first place.
type MemberCallbackHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewMemberCallbackHandler creates a new MemberCallbackHandler.
func NewMemberCallbackHandler(svc *service.Service, logger *logrus.Logger) *MemberCallbackHandler {
	return &MemberCallbackHandler{svc: svc, logger: logger}
}

// HandleCallback processes a member button press.
func (h *MemberCallbackHandler) HandleCallback(ctx context.Context, bot *tgbotapi.BotAPI, query *tgbotapi.CallbackQuery, args []string) error {
	chatID := query.Message.Chat.ID
	answer := func(text string) {
		bot.Request(tgbotapi.NewCallback(query.ID, text))
	}

	if len(args) != 2 || args[0] != "k" {
		answer("")
		return nil
	}
	memberID := args[1]

	session, err := h.svc.Authed(ctx, chatID)
	if err != nil {
		answer("Not logged in.")
		return nil
	}
	chat := h.svc.State.Get(chatID)
	if chat == nil || chat.Detail() == nil {
		answer("This view is stale. Send /open again.")
		return nil
	}
	detail := chat.Detail()

	if err := detail.RemoveMember(ctx, memberID); err != nil {
		if h.svc.HandleAuthFailure(ctx, session.ChatID, err) {
			answer("Session expired. Please /login again.")
			return nil
		}
		answer(failureText(err))
		return nil
	}

	answer("Removed 🚪")
	return editDetailView(bot, chatID, query.Message.MessageID, detail)
}
