package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplistbot/internal/api"
	"github.com/Kerhoff/shoplistbot/internal/models"
	"github.com/Kerhoff/shoplistbot/internal/state"
)

// ErrNotAuthenticated means the chat has no session; handlers prompt for
// /login, the chat equivalent of the redirect-to-login rule.
var ErrNotAuthenticated = errors.New("not logged in")

// SessionStore is the slice of the session store the service layer needs.
type SessionStore interface {
	Current(ctx context.Context, chatID int64) *models.Session
	Logout(ctx context.Context, chatID int64)
}

// Service is the central object handed to every handler: the remote API
// client, the session store and the per-chat view-model registry.
type Service struct {
	logger   *logrus.Logger
	Client   *api.Client
	Sessions SessionStore
	State    *state.Registry
}

// New creates a new Service with all required dependencies.
func New(logger *logrus.Logger, client *api.Client, sessions SessionStore, registry *state.Registry) *Service {
	return &Service{
		logger:   logger,
		Client:   client,
		Sessions: sessions,
		State:    registry,
	}
}

// Authed returns the chat's session or ErrNotAuthenticated.
func (s *Service) Authed(ctx context.Context, chatID int64) (*models.Session, error) {
	session := s.Sessions.Current(ctx, chatID)
	if session == nil {
		return nil, ErrNotAuthenticated
	}
	return session, nil
}

// ChatState returns the chat's mounted view models, mounting a fresh
// directory when none exists yet. The chat state is kept even when the
// initial load fails so a retry goes through the same path.
func (s *Service) ChatState(ctx context.Context, session *models.Session) (*state.Chat, error) {
	chat := s.State.Get(session.ChatID)
	if chat == nil {
		directory := state.NewDirectory(s.Client, s.logger, session.Token)
		chat = state.NewChat(directory)
		s.State.Put(session.ChatID, chat)
	}

	if !chat.Directory.Loaded() {
		if err := chat.Directory.Load(ctx); err != nil {
			return chat, err
		}
	}
	return chat, nil
}

// OpenGroup mounts a detail view over one group, deriving the working copy
// from the directory cache instead of issuing a redundant fetch. When the
// id is not cached (a fresh restart, or a listing that changed server-side)
// the directory is reloaded once before giving up.
func (s *Service) OpenGroup(ctx context.Context, session *models.Session, chat *state.Chat, groupID string) (*state.Detail, error) {
	group, ok := chat.Directory.Get(groupID)
	if !ok {
		if err := chat.Directory.Load(ctx); err != nil {
			return nil, err
		}
		if group, ok = chat.Directory.Get(groupID); !ok {
			return nil, state.ErrUnknownEntry
		}
	}
	if !group.Joined() {
		return nil, state.ErrNotJoined
	}

	detail := state.NewDetail(s.Client, s.logger, session.Token, session.UserID, group)
	chat.SetDetail(detail)
	return detail, nil
}

// Teardown clears the chat's session and view models.
func (s *Service) Teardown(ctx context.Context, chatID int64) {
	s.Sessions.Logout(ctx, chatID)
	s.State.Drop(chatID)
}

// HandleAuthFailure tears the session down when err is an Unauthorized
// failure and reports whether it did. Unauthorized is the only error kind
// that forces a teardown.
func (s *Service) HandleAuthFailure(ctx context.Context, chatID int64, err error) bool {
	if !api.IsUnauthorized(err) {
		return false
	}
	s.logger.WithField("chat_id", chatID).Warn("Credential rejected, tearing session down")
	s.Teardown(ctx, chatID)
	return true
}

// DeleteAccount deletes the remote account, then clears the local session
// the same way logout does.
func (s *Service) DeleteAccount(ctx context.Context, session *models.Session) error {
	if err := s.Client.DeleteAccount(ctx, session.Token); err != nil {
		return err
	}
	s.Teardown(ctx, session.ChatID)
	return nil
}
