package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplistbot/internal/service"
	"github.com/Kerhoff/shoplistbot/internal/session"
)

// ---------------------------------------------------------------------------
// LoginHandler – /login <username> <password>
// ---------------------------------------------------------------------------

// LoginHandler signs the chat in against the shopping-list service.
type LoginHandler struct {
	svc      *service.Service
	sessions *session.Store
	logger   *logrus.Logger
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(svc *service.Service, sessions *session.Store, logger *logrus.Logger) *LoginHandler {
	return &LoginHandler{svc: svc, sessions: sessions, logger: logger}
}

// Handle processes the /login command.
func (h *LoginHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) != 2 {
		return reply(bot, message.Chat.ID,
			"❌ Usage: `/login <username> <password>`\n\n_Tip: talk to me in a private chat so the group doesn't see your password._")
	}

	sess, err := h.sessions.Login(ctx, message.Chat.ID, args[0], args[1])
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"chat_id": message.Chat.ID,
			"error":   err,
		}).Warn("Login failed")
		return reply(bot, message.Chat.ID, "❌ Login failed. "+failureText(err))
	}

	// A fresh login supersedes whatever was mounted before.
	h.svc.State.Drop(message.Chat.ID)

	if err := reply(bot, message.Chat.ID,
		fmt.Sprintf("✅ Welcome, *%s*! Loading your groups…", sess.Name)); err != nil {
		return err
	}

	chat, err := h.svc.ChatState(ctx, sess)
	if err != nil {
		return reply(bot, message.Chat.ID, "❌ Could not load your groups. "+failureText(err))
	}
	return reply(bot, message.Chat.ID, renderGroups(chat.Directory.Groups()))
}

// ---------------------------------------------------------------------------
// RegisterHandler – /register <name> <username> <password>
// ---------------------------------------------------------------------------

// RegisterHandler creates an account and immediately signs the chat in. A
// login failure after a successful registration is reported as a login
// failure, because at that point the account exists.
type RegisterHandler struct {
	svc      *service.Service
	sessions *session.Store
	logger   *logrus.Logger
}

// NewRegisterHandler creates a new RegisterHandler.
func NewRegisterHandler(svc *service.Service, sessions *session.Store, logger *logrus.Logger) *RegisterHandler {
	return &RegisterHandler{svc: svc, sessions: sessions, logger: logger}
}

// Handle processes the /register command.
func (h *RegisterHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) < 3 {
		return reply(bot, message.Chat.ID,
			"❌ Usage: `/register <name> <username> <password>`")
	}

	// The display name may contain spaces; username and password may not.
	name := strings.Join(args[:len(args)-2], " ")
	username := args[len(args)-2]
	password := args[len(args)-1]

	sess, err := h.sessions.Register(ctx, message.Chat.ID, name, username, password)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"chat_id":  message.Chat.ID,
			"username": username,
			"error":    err,
		}).Warn("Registration failed")
		return reply(bot, message.Chat.ID, registerFailureText(err))
	}

	h.svc.State.Drop(message.Chat.ID)

	if err := reply(bot, message.Chat.ID,
		fmt.Sprintf("🎉 Account created. Welcome, *%s*!", sess.Name)); err != nil {
		return err
	}

	chat, err := h.svc.ChatState(ctx, sess)
	if err != nil {
		return reply(bot, message.Chat.ID, "❌ Could not load your groups. "+failureText(err))
	}
	return reply(bot, message.Chat.ID, renderGroups(chat.Directory.Groups()))
}

// ---------------------------------------------------------------------------
// LogoutHandler – /logout
// ---------------------------------------------------------------------------

// LogoutHandler clears the chat's session. It never fails.
type LogoutHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewLogoutHandler creates a new LogoutHandler.
func NewLogoutHandler(svc *service.Service, logger *logrus.Logger) *LogoutHandler {
	return &LogoutHandler{svc: svc, logger: logger}
}

// Handle processes the /logout command.
func (h *LogoutHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	h.svc.Teardown(ctx, message.Chat.ID)
	return reply(bot, message.Chat.ID, "👋 Logged out. See you!")
}

// ---------------------------------------------------------------------------
// ProfileHandler – /profile
// ---------------------------------------------------------------------------

// ProfileHandler re-fetches and shows the user's profile snapshot.
type ProfileHandler struct {
	svc      *service.Service
	sessions *session.Store
	logger   *logrus.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc *service.Service, sessions *session.Store, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, sessions: sessions, logger: logger}
}

// Handle processes the /profile command.
func (h *ProfileHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	sess, err := h.svc.Authed(ctx, message.Chat.ID)
	if err != nil {
		return reply(bot, message.Chat.ID, loginPrompt)
	}

	profile, err := h.sessions.RefreshProfile(ctx, sess)
	if err != nil {
		if h.svc.HandleAuthFailure(ctx, message.Chat.ID, err) {
			return reply(bot, message.Chat.ID, failureText(err))
		}
		return reply(bot, message.Chat.ID, "❌ Could not fetch your profile. "+failureText(err))
	}

	return reply(bot, message.Chat.ID,
		fmt.Sprintf("👤 *%s*\n@%s\n\n_/deleteaccount removes the account permanently._",
			profile.Name, profile.Username))
}

// ---------------------------------------------------------------------------
// DeleteAccountHandler – /deleteaccount confirm
// ---------------------------------------------------------------------------

// DeleteAccountHandler deletes the remote account and clears the session.
// The command must be repeated with a literal "confirm" argument; there is
// no undo.
type DeleteAccountHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewDeleteAccountHandler creates a new DeleteAccountHandler.
func NewDeleteAccountHandler(svc *service.Service, logger *logrus.Logger) *DeleteAccountHandler {
	return &DeleteAccountHandler{svc: svc, logger: logger}
}

// Handle processes the /deleteaccount command.
func (h *DeleteAccountHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	sess, err := h.svc.Authed(ctx, message.Chat.ID)
	if err != nil {
		return reply(bot, message.Chat.ID, loginPrompt)
	}

	if len(args) != 1 || args[0] != "confirm" {
		return reply(bot, message.Chat.ID,
			"⚠️ This permanently deletes your account and cannot be undone.\nIf you are sure, send `/deleteaccount confirm`.")
	}

	if err := h.svc.DeleteAccount(ctx, sess); err != nil {
		if h.svc.HandleAuthFailure(ctx, message.Chat.ID, err) {
			return reply(bot, message.Chat.ID, failureText(err))
		}
		return reply(bot, message.Chat.ID, "❌ Could not delete the account. "+failureText(err))
	}

	h.logger.WithField("chat_id", message.Chat.ID).Info("Account deleted")
	return reply(bot, message.Chat.ID, "🗑 Account deleted. Goodbye!")
}
