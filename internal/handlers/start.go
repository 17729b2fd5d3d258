package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplistbot/internal/service"
)

// StartHandler handles the /start command
type StartHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewStartHandler creates a new start command handler
func NewStartHandler(svc *service.Service, logger *logrus.Logger) *StartHandler {
	return &StartHandler{svc: svc, logger: logger}
}

// Handle processes the /start command
func (h *StartHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	welcomeText := `
🛒 *Welcome to the shopping-list bot!*

I connect this chat to the shared shopping-list service: log in once, then
manage your groups, their items and their members right here.

*Get started:*
• /register <name> <username> <password> - Create an account
• /login <username> <password> - Sign in
• /groups - Your groups
• /help - All commands
	`

	if session, err := h.svc.Authed(ctx, message.Chat.ID); err == nil {
		welcomeText = fmt.Sprintf("🛒 Welcome back, *%s*!\n\nUse /groups to pick up where you left off, or /help for all commands.", session.Name)
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, welcomeText)
	msg.ParseMode = tgbotapi.ModeMarkdown

	_, err := bot.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send start message: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
	}).Info("Sent start message")

	return nil
}
