package repository

import (
	"context"

	"github.com/Kerhoff/shoplistbot/internal/models"
)

// SessionRepository persists the one piece of local state the bot owns:
// each chat's credential token and cached profile snapshot.
type SessionRepository interface {
	// Upsert stores or replaces the session for its chat id.
	Upsert(ctx context.Context, session *models.Session) (*models.Session, error)
	// GetByChatID returns the session for a chat, or nil when none exists.
	GetByChatID(ctx context.Context, chatID int64) (*models.Session, error)
	// GetAll returns every stored session, used to warm the cache at start.
	GetAll(ctx context.Context) ([]*models.Session, error)
	// Delete removes a chat's session. Deleting a missing session is not
	// an error.
	Delete(ctx context.Context, chatID int64) error
}
