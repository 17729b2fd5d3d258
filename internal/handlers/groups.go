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
// GroupsHandler – /groups
// ---------------------------------------------------------------------------

// GroupsHandler reloads and shows the "my groups" listing. Every entry in
// the listing is joined by definition.
type GroupsHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewGroupsHandler creates a new GroupsHandler.
func NewGroupsHandler(svc *service.Service, logger *logrus.Logger) *GroupsHandler {
	return &GroupsHandler{svc: svc, logger: logger}
}

// Handle processes the /groups command.
func (h *GroupsHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	session, chat, ok := authedChat(ctx, h.svc, bot, message.Chat.ID)
	if !ok {
		return nil
	}

	// An explicit /groups always refreshes the listing, e.g. to back out
	// of a search view.
	if err := chat.Directory.Load(ctx); err != nil {
		if h.svc.HandleAuthFailure(ctx, session.ChatID, err) {
			return reply(bot, message.Chat.ID, failureText(err))
		}
		return reply(bot, message.Chat.ID,
			"❌ Could not load your groups. "+failureText(err)+"\nSend /groups again to retry.")
	}

	return reply(bot, message.Chat.ID, renderGroups(chat.Directory.Groups()))
}

// ---------------------------------------------------------------------------
// SearchGroupsHandler – /search <name>
// ---------------------------------------------------------------------------

// SearchGroupsHandler searches all groups by name. The result replaces the
// visible listing entirely; nothing from the joined listing is merged in.
type SearchGroupsHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewSearchGroupsHandler creates a new SearchGroupsHandler.
func NewSearchGroupsHandler(svc *service.Service, logger *logrus.Logger) *SearchGroupsHandler {
	return &SearchGroupsHandler{svc: svc, logger: logger}
}

// Handle processes the /search command.
func (h *SearchGroupsHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	session, chat, ok := authedChat(ctx, h.svc, bot, message.Chat.ID)
	if !ok {
		return nil
	}

	groups, err := chat.Directory.Search(ctx, strings.Join(args, " "))
	if err != nil {
		if h.svc.HandleAuthFailure(ctx, session.ChatID, err) {
			return reply(bot, message.Chat.ID, failureText(err))
		}
		// The previous visible set is untouched on failure.
		return reply(bot, message.Chat.ID, "❌ Search failed. "+failureText(err))
	}

	if len(groups) == 0 {
		return reply(bot, message.Chat.ID, "🔍 *Nothing found.*\n\n_Back to your own groups with /groups._")
	}
	return reply(bot, message.Chat.ID, renderGroups(groups))
}

// ---------------------------------------------------------------------------
// NewGroupHandler – /newgroup <name> <password>
// ---------------------------------------------------------------------------

// NewGroupHandler creates a password-protected group. The new group shows
// up in the listing immediately, without a re-fetch.
type NewGroupHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewNewGroupHandler creates a new NewGroupHandler.
func NewNewGroupHandler(svc *service.Service, logger *logrus.Logger) *NewGroupHandler {
	return &NewGroupHandler{svc: svc, logger: logger}
}

// Handle processes the /newgroup command.
func (h *NewGroupHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) < 2 {
		return reply(bot, message.Chat.ID, "❌ Usage: `/newgroup <name> <password>`")
	}

	session, chat, ok := authedChat(ctx, h.svc, bot, message.Chat.ID)
	if !ok {
		return nil
	}

	// The group name may contain spaces; the password is the last word.
	name := strings.Join(args[:len(args)-1], " ")
	password := args[len(args)-1]

	group, err := chat.Directory.Create(ctx, name, password)
	if err != nil {
		if h.svc.HandleAuthFailure(ctx, session.ChatID, err) {
			return reply(bot, message.Chat.ID, failureText(err))
		}
		return reply(bot, message.Chat.ID, "❌ Could not create the group. "+failureText(err))
	}

	if err := reply(bot, message.Chat.ID,
		fmt.Sprintf("🎉 Group *%s* created.", group.Name)); err != nil {
		return err
	}
	return reply(bot, message.Chat.ID, renderGroups(chat.Directory.Groups()))
}

// ---------------------------------------------------------------------------
// JoinHandler – /join <number> <password>
// ---------------------------------------------------------------------------

// JoinHandler joins a group from the visible listing. On success the entry
// flips to joined in place; it is never duplicated.
type JoinHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewJoinHandler creates a new JoinHandler.
func NewJoinHandler(svc *service.Service, logger *logrus.Logger) *JoinHandler {
	return &JoinHandler{svc: svc, logger: logger}
}

// Handle processes the /join command.
func (h *JoinHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) != 2 {
		return reply(bot, message.Chat.ID, "❌ Usage: `/join <number> <password>` — the number from the last /search or /groups listing.")
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
	target := groups[idx]
	if target.Joined() {
		return reply(bot, message.Chat.ID,
			fmt.Sprintf("ℹ️ You are already a member of *%s*. Open it with `/open %d`.", target.Name, idx+1))
	}

	joined, err := chat.Directory.Join(ctx, target.ID, args[1])
	if err != nil {
		if h.svc.HandleAuthFailure(ctx, session.ChatID, err) {
			return reply(bot, message.Chat.ID, failureText(err))
		}
		return reply(bot, message.Chat.ID, "❌ Could not join. "+failureText(err))
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id":  message.Chat.ID,
		"group_id": joined.ID,
	}).Info("Chat joined group")

	if err := reply(bot, message.Chat.ID,
		fmt.Sprintf("🎉 You joined *%s*.", joined.Name)); err != nil {
		return err
	}
	return reply(bot, message.Chat.ID, renderGroups(chat.Directory.Groups()))
}
