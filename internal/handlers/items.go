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
// AddItemHandler – /add <name>
// ---------------------------------------------------------------------------

// AddItemHandler adds an item to the open group. A blank name is rejected
// before any request is sent; on success the server's copy of the item is
// appended to the view.
type AddItemHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewAddItemHandler creates a new AddItemHandler.
func NewAddItemHandler(svc *service.Service, logger *logrus.Logger) *AddItemHandler {
	return &AddItemHandler{svc: svc, logger: logger}
}

// Handle processes the /add command.
func (h *AddItemHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	session, _, detail, ok := currentDetail(ctx, h.svc, bot, message.Chat.ID)
	if !ok {
		return nil
	}

	item, err := detail.AddItem(ctx, strings.Join(args, " "))
	if err != nil {
		if h.svc.HandleAuthFailure(ctx, session.ChatID, err) {
			return reply(bot, message.Chat.ID, failureText(err))
		}
		return reply(bot, message.Chat.ID, failureText(err))
	}

	if err := reply(bot, message.Chat.ID,
		fmt.Sprintf("🛒 Added *%s*.", item.Title)); err != nil {
		return err
	}
	return sendDetailView(bot, message.Chat.ID, detail)
}

// ---------------------------------------------------------------------------
// DeleteItemHandler – /del <number>
// ---------------------------------------------------------------------------

// DeleteItemHandler deletes an item from the open group. The item stays
// visible until the server confirms.
type DeleteItemHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewDeleteItemHandler creates a new DeleteItemHandler.
func NewDeleteItemHandler(svc *service.Service, logger *logrus.Logger) *DeleteItemHandler {
	return &DeleteItemHandler{svc: svc, logger: logger}
}

// Handle processes the /del command.
func (h *DeleteItemHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return reply(bot, message.Chat.ID, "❌ Usage: `/del <number>` — the item number from the group view.")
	}

	session, _, detail, ok := currentDetail(ctx, h.svc, bot, message.Chat.ID)
	if !ok {
		return nil
	}

	items := detail.Group().Items
	idx, err := parseIndex(args[0], len(items))
	if err != nil {
		return reply(bot, message.Chat.ID, failureText(err))
	}
	target := items[idx]

	if err := detail.DeleteItem(ctx, target.ID); err != nil {
		if h.svc.HandleAuthFailure(ctx, session.ChatID, err) {
			return reply(bot, message.Chat.ID, failureText(err))
		}
		return reply(bot, message.Chat.ID,
			fmt.Sprintf("❌ Could not delete *%s*. ", target.Title)+failureText(err))
	}

	if err := reply(bot, message.Chat.ID,
		fmt.Sprintf("🗑 Deleted *%s*.", target.Title)); err != nil {
		return err
	}
	return sendDetailView(bot, message.Chat.ID, detail)
}

// ---------------------------------------------------------------------------
// BoughtHandler – /bought <number>
// ---------------------------------------------------------------------------

// BoughtHandler toggles an item's bought state. The direction is picked
// from the current view, so toggling twice lands back where it started.
type BoughtHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewBoughtHandler creates a new BoughtHandler.
func NewBoughtHandler(svc *service.Service, logger *logrus.Logger) *BoughtHandler {
	return &BoughtHandler{svc: svc, logger: logger}
}

// Handle processes the /bought command.
func (h *BoughtHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return reply(bot, message.Chat.ID, "❌ Usage: `/bought <number>` — the item number from the group view.")
	}

	session, _, detail, ok := currentDetail(ctx, h.svc, bot, message.Chat.ID)
	if !ok {
		return nil
	}

	items := detail.Group().Items
	idx, err := parseIndex(args[0], len(items))
	if err != nil {
		return reply(bot, message.Chat.ID, failureText(err))
	}
	target := items[idx]

	bought, err := detail.ToggleBought(ctx, target.ID)
	if err != nil {
		if h.svc.HandleAuthFailure(ctx, session.ChatID, err) {
			return reply(bot, message.Chat.ID, failureText(err))
		}
		return reply(bot, message.Chat.ID, failureText(err))
	}

	notice := fmt.Sprintf("✅ *%s* bought.", target.Title)
	if !bought {
		notice = fmt.Sprintf("↩️ *%s* back on the list.", target.Title)
	}
	if err := reply(bot, message.Chat.ID, notice); err != nil {
		return err
	}
	return sendDetailView(bot, message.Chat.ID, detail)
}

// ---------------------------------------------------------------------------
// ItemCallbackHandler – inline buttons "item:t:<id>" / "item:d:<id>"
// ---------------------------------------------------------------------------

// ItemCallbackHandler serves the per-item toggle and delete buttons. The
// button's loading spinner stays until the mutation settles, and a second
// press on the same item while it is pending is rejected by the view
// model, so each item serializes its own mutations.
type ItemCallbackHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewItemCallbackHandler creates a new ItemCallbackHandler.
func NewItemCallbackHandler(svc *service.Service, logger *logrus.Logger) *ItemCallbackHandler {
	return &ItemCallbackHandler{svc: svc, logger: logger}
}

// HandleCallback processes an item button press.
func (h *ItemCallbackHandler) HandleCallback(ctx context.Context, bot *tgbotapi.BotAPI, query *tgbotapi.CallbackQuery, args []string) error {
	chatID := query.Message.Chat.ID
	answer := func(text string) {
		bot.Request(tgbotapi.NewCallback(query.ID, text))
	}

	if len(args) != 2 {
		answer("")
		return nil
	}
	action, itemID := args[0], args[1]

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

	switch action {
	case "t":
		bought, err := detail.ToggleBought(ctx, itemID)
		if err != nil {
			if h.svc.HandleAuthFailure(ctx, session.ChatID, err) {
				answer("Session expired. Please /login again.")
				return nil
			}
			answer(failureText(err))
			return nil
		}
		if bought {
			answer("Bought ✅")
		} else {
			answer("Back on the list ↩️")
		}
	case "d":
		if err := detail.DeleteItem(ctx, itemID); err != nil {
			if h.svc.HandleAuthFailure(ctx, session.ChatID, err) {
				answer("Session expired. Please /login again.")
				return nil
			}
			answer(failureText(err))
			return nil
		}
		answer("Deleted 🗑")
	default:
		answer("")
		return nil
	}

	return editDetailView(bot, chatID, query.Message.MessageID, detail)
}
