package models

import "time"

// Channel kinds.
const (
	ChannelPublic  = "public"
	ChannelPrivate = "private"
	ChannelDirect  = "direct"
)

// Participant roles.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Channel is a named conversation scope.
type Channel struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Kind        string    `db:"kind" json:"kind"`
	CreatedBy   int       `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
	IsActive    bool      `db:"is_active" json:"is_active"`
}

// ChannelParticipant is a user's membership record in a channel.
type ChannelParticipant struct {
	ID         int        `db:"id" json:"id"`
	ChannelID  int        `db:"channel_id" json:"channel_id"`
	UserID     int        `db:"user_id" json:"user_id"`
	Role       string     `db:"role" json:"role"`
	JoinedAt   time.Time  `db:"joined_at" json:"joined_at"`
	LastSeenAt *time.Time `db:"last_seen_at" json:"last_seen_at,omitempty"`
	IsActive   bool       `db:"is_active" json:"is_active"`
}

// ChannelWithDetails is the directory listing view of a channel.
type ChannelWithDetails struct {
	Channel
	ParticipantCount int      `json:"participant_count"`
	UnreadCount      int      `json:"unread_count"`
	LastMessage      *Message `json:"last_message,omitempty"`
}
