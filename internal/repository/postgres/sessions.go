package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/shoplistbot/internal/models"
	"github.com/Kerhoff/shoplistbot/internal/repository"
)

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Upsert(ctx context.Context, session *models.Session) (*models.Session, error) {
	query := `
		INSERT INTO sessions (chat_id, token, user_id, username, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (chat_id) DO UPDATE SET
			token = EXCLUDED.token,
			user_id = EXCLUDED.user_id,
			username = EXCLUDED.username,
			name = EXCLUDED.name,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at`

	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		session.ChatID,
		session.Token,
		session.UserID,
		session.Username,
		session.Name,
		session.CreatedAt,
		session.UpdatedAt,
	).Scan(&session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert session: %w", err)
	}

	return session, nil
}

func (r *sessionRepository) GetByChatID(ctx context.Context, chatID int64) (*models.Session, error) {
	query := `
		SELECT chat_id, token, user_id, username, name, created_at, updated_at
		FROM sessions
		WHERE chat_id = $1`

	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, chatID).Scan(
		&session.ChatID,
		&session.Token,
		&session.UserID,
		&session.Username,
		&session.Name,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session by chat ID: %w", err)
	}

	return session, nil
}

func (r *sessionRepository) GetAll(ctx context.Context) ([]*models.Session, error) {
	query := `
		SELECT chat_id, token, user_id, username, name, created_at, updated_at
		FROM sessions
		ORDER BY chat_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session := &models.Session{}
		if err := rows.Scan(
			&session.ChatID,
			&session.Token,
			&session.UserID,
			&session.Username,
			&session.Name,
			&session.CreatedAt,
			&session.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}

func (r *sessionRepository) Delete(ctx context.Context, chatID int64) error {
	query := `DELETE FROM sessions WHERE chat_id = $1`

	if _, err := r.db.ExecContext(ctx, query, chatID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}
