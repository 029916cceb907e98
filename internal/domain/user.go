// internal/domain/user.go
package domain

import "time"

// User represents a person tracked by the food-budget wallet. ChatID is the
// immutable handle of the chat gateway in front of this service.
type User struct {
	ID        int64     `db:"id" json:"id"`
	ChatID    int64     `db:"chat_id" json:"chat_id"`
	Username  string    `db:"username" json:"username"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewUser creates a new User instance.
func NewUser(chatID int64, username string) *User {
	now := time.Now().UTC()
	return &User{
		ChatID:    chatID,
		Username:  username,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
