package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplistbot/internal/metrics"
)

// Router handles message routing and command parsing
type Router struct {
	logger    *logrus.Logger
	metrics   *metrics.Metrics
	handlers  map[string]CommandHandler
	callbacks map[string]CallbackHandler
}

// CommandHandler defines the interface for command handlers
type CommandHandler interface {
	Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error
}

// CallbackHandler defines the interface for inline-keyboard callback
// handlers. Callback data is "prefix:arg1:arg2..."; the handler receives
// the args and is responsible for answering the callback query, so the
// button's loading spinner doubles as the per-entity pending indicator.
type CallbackHandler interface {
	HandleCallback(ctx context.Context, bot *tgbotapi.BotAPI, query *tgbotapi.CallbackQuery, args []string) error
}

// NewRouter creates a new message router
func NewRouter(logger *logrus.Logger, m *metrics.Metrics) *Router {
	return &Router{
		logger:    logger,
		metrics:   m,
		handlers:  make(map[string]CommandHandler),
		callbacks: make(map[string]CallbackHandler),
	}
}

// RegisterCommand registers a command handler
func (r *Router) RegisterCommand(command string, handler CommandHandler) {
	r.handlers[command] = handler
	r.logger.Debugf("Registered command: %s", command)
}

// RegisterCallback registers a callback handler for a data prefix
func (r *Router) RegisterCallback(prefix string, handler CallbackHandler) {
	r.callbacks[prefix] = handler
	r.logger.Debugf("Registered callback prefix: %s", prefix)
}

// HandleMessage handles incoming messages
func (r *Router) HandleMessage(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message) {
	r.logger.WithFields(logrus.Fields{
		"chat_id":    message.Chat.ID,
		"user_id":    message.From.ID,
		"username":   message.From.UserName,
		"message_id": message.MessageID,
	}).Info("Received message")

	// Only process text messages
	if message.Text == "" {
		return
	}

	// Check if it's a command
	if !message.IsCommand() {
		return
	}

	command := message.Command()
	args := strings.Fields(message.CommandArguments())

	// Find and execute handler
	if handler, exists := r.handlers[command]; exists {
		if err := handler.Handle(ctx, bot, message, args); err != nil {
			r.metrics.ObserveCommand(command, "error")
			r.logger.WithFields(logrus.Fields{
				"command": command,
				"chat_id": message.Chat.ID,
				"user_id": message.From.ID,
				"error":   err,
			}).Error("Command handler failed")

			// Send error message to user
			errorMsg := tgbotapi.NewMessage(message.Chat.ID, "❌ An error occurred while processing your command. Please try again.")
			bot.Send(errorMsg)
		} else {
			r.metrics.ObserveCommand(command, "ok")
		}
	} else {
		// Unknown command
		r.logger.WithFields(logrus.Fields{
			"command": command,
			"chat_id": message.Chat.ID,
			"user_id": message.From.ID,
		}).Warn("Unknown command")

		unknownMsg := tgbotapi.NewMessage(message.Chat.ID, "❓ Unknown command. Use /help to see available commands.")
		bot.Send(unknownMsg)
	}
}

// HandleCallbackQuery handles callback queries from inline keyboards
func (r *Router) HandleCallbackQuery(ctx context.Context, bot *tgbotapi.BotAPI, query *tgbotapi.CallbackQuery) {
	r.logger.WithFields(logrus.Fields{
		"callback_id": query.ID,
		"user_id":     query.From.ID,
		"data":        query.Data,
	}).Info("Received callback query")

	parts := strings.Split(query.Data, ":")
	handler, exists := r.callbacks[parts[0]]
	if !exists {
		r.logger.WithField("data", query.Data).Warn("Unknown callback prefix")
		bot.Request(tgbotapi.NewCallback(query.ID, ""))
		return
	}

	if err := handler.HandleCallback(ctx, bot, query, parts[1:]); err != nil {
		r.logger.WithFields(logrus.Fields{
			"data":    query.Data,
			"user_id": query.From.ID,
			"error":   err,
		}).Error("Callback handler failed")

		bot.Request(tgbotapi.NewCallback(query.ID, "Something went wrong. Please try again."))
	}
}
