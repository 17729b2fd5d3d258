package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

// NewHelpHandler creates a new help command handler
func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

// Handle processes the /help command
func (h *HelpHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	helpText := `
🛒 *Shopping-list bot commands*

*Account:*
• /register <name> <username> <password> - Create an account
• /login <username> <password> - Sign in
• /logout - Sign out
• /profile - Your profile
• /deleteaccount - Delete your account (asks for confirmation)

*Groups:*
• /groups - Your groups
• /search <name> - Find groups to join
• /newgroup <name> <password> - Create a group
• /join <number> <password> - Join a group from the listing
• /open <number> - Open a group

*Inside an open group:*
• /add <name> - Add an item
• /bought <number> - Toggle an item bought/unbought
• /del <number> - Delete an item
• /members - Show the member list
• /finduser <name> - Search users to invite (owner only)
• /invite <number> - Add a user from the search results (owner only)
• /kick <number> - Remove a member
• /leave - Leave the group (non-owners)
• /delgroup - Delete the group (owner only)

The buttons under the group view do the same as /bought, /del and /kick.
	`

	msg := tgbotapi.NewMessage(message.Chat.ID, helpText)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}

	h.logger.WithField("chat_id", message.Chat.ID).Info("Sent help message")
	return nil
}
