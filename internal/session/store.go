package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplistbot/internal/api"
	"github.com/Kerhoff/shoplistbot/internal/models"
	"github.com/Kerhoff/shoplistbot/internal/repository"
)

// Store owns each chat's authenticated identity: the credential token plus
// the profile snapshot fetched at login. Login, Register, Logout and
// account deletion are the only paths that mutate persisted session state;
// everything else reads through Current.
type Store struct {
	client *api.Client
	repo   repository.SessionRepository
	logger *logrus.Logger

	mu    sync.RWMutex
	cache map[int64]*models.Session
}

// NewStore creates a session store backed by repo.
func NewStore(client *api.Client, repo repository.SessionRepository, logger *logrus.Logger) *Store {
	return &Store{
		client: client,
		repo:   repo,
		logger: logger,
		cache:  make(map[int64]*models.Session),
	}
}

// Init warms the in-memory cache from storage at application start.
func (s *Store) Init(ctx context.Context) error {
	sessions, err := s.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}

	s.mu.Lock()
	for _, session := range sessions {
		s.cache[session.ChatID] = session
	}
	s.mu.Unlock()

	s.logger.Infof("Loaded %d stored sessions", len(sessions))
	return nil
}

// Current returns the chat's session, or nil when the chat is not logged
// in. Falls back to storage on a cache miss so restarts are transparent.
func (s *Store) Current(ctx context.Context, chatID int64) *models.Session {
	s.mu.RLock()
	session, ok := s.cache[chatID]
	s.mu.RUnlock()
	if ok {
		return session
	}

	session, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to read stored session")
		return nil
	}
	if session == nil {
		return nil
	}

	s.mu.Lock()
	s.cache[chatID] = session
	s.mu.Unlock()
	return session
}

// Login exchanges credentials for a token, fetches the profile and persists
// the resulting session for the chat.
func (s *Store) Login(ctx context.Context, chatID int64, username, password string) (*models.Session, error) {
	token, err := s.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	profile, err := s.client.Profile(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("fetch profile after login: %w", err)
	}

	session := &models.Session{
		ChatID:   chatID,
		Token:    token,
		UserID:   profile.ID,
		Username: profile.Username,
		Name:     profile.Name,
	}
	if session, err = s.repo.Upsert(ctx, session); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[chatID] = session
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"chat_id":  chatID,
		"username": profile.Username,
	}).Info("Chat logged in")
	return session, nil
}

// ErrLoginAfterRegister marks a sign-in failure that happened after the
// account was already created. Callers must frame it as a login problem:
// retrying the registration would only hit a duplicate-username conflict.
var ErrLoginAfterRegister = errors.New("account created but sign-in failed")

// Register creates an account and then performs the same exchange as Login.
// When the account is created but the follow-up login fails, the failure
// surfaces as a login failure wrapped in ErrLoginAfterRegister: the account
// already exists and the user should retry /login, not /register.
func (s *Store) Register(ctx context.Context, chatID int64, name, username, password string) (*models.Session, error) {
	if err := s.client.Register(ctx, name, username, password); err != nil {
		return nil, err
	}
	session, err := s.Login(ctx, chatID, username, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginAfterRegister, err)
	}
	return session, nil
}

// Logout clears the chat's session unconditionally. Storage errors are
// logged but never surfaced: the in-memory credential is gone either way.
func (s *Store) Logout(ctx context.Context, chatID int64) {
	s.mu.Lock()
	delete(s.cache, chatID)
	s.mu.Unlock()

	if err := s.repo.Delete(ctx, chatID); err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to delete stored session")
	}
}

// RefreshProfile re-fetches the profile snapshot for an explicit /profile
// request and updates the stored session. Sessions handed out by Current are
// shared across handler goroutines, so the published pointer is never
// written to; a fresh session replaces it in the cache instead.
func (s *Store) RefreshProfile(ctx context.Context, session *models.Session) (*models.Profile, error) {
	profile, err := s.client.Profile(ctx, session.Token)
	if err != nil {
		return nil, err
	}

	refreshed := &models.Session{
		ChatID:    session.ChatID,
		Token:     session.Token,
		UserID:    profile.ID,
		Username:  profile.Username,
		Name:      profile.Name,
		CreatedAt: session.CreatedAt,
	}
	if stored, err := s.repo.Upsert(ctx, refreshed); err != nil {
		s.logger.WithError(err).WithField("chat_id", session.ChatID).Error("Failed to store refreshed profile")
	} else {
		refreshed = stored
	}

	s.mu.Lock()
	s.cache[refreshed.ChatID] = refreshed
	s.mu.Unlock()
	return profile, nil
}
