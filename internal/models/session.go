package models

import "time"

// Session is a chat's authenticated identity on the shopping-list service:
// the opaque bearer token plus the profile snapshot fetched at login. One
// session per Telegram chat, persisted under the chat id.
type Session struct {
	ChatID    int64     `json:"chat_id" db:"chat_id"`
	Token     string    `json:"-" db:"token"`
	UserID    string    `json:"user_id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Profile returns the cached profile snapshot stored with the session.
func (s *Session) Profile() Profile {
	return Profile{ID: s.UserID, Name: s.Name, Username: s.Username}
}
