package models

import "time"

// Presence statuses.
const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusBusy    = "busy"
	StatusOffline = "offline"
)

// ValidStatus reports whether s is one of the four presence statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy, StatusOffline:
		return true
	}
	return false
}

// UserPresence is the single availability row kept per user.
type UserPresence struct {
	UserID    int       `db:"user_id" json:"user_id"`
	Status    string    `db:"status" json:"status"`
	LastSeen  time.Time `db:"last_seen" json:"last_seen"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TypingIndicator is the durable fallback row for "user is typing".
type TypingIndicator struct {
	ID        int       `db:"id" json:"id"`
	ChannelID int       `db:"channel_id" json:"channel_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	StartedAt time.Time `db:"started_at" json:"started_at"`
}
