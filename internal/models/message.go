package models

import "time"

// Message types.
const (
	MessageText   = "text"
	MessageImage  = "image"
	MessageFile   = "file"
	MessageSystem = "system"
)

// Message represents a channel message. Either Content or FileURL is set.
type Message struct {
	ID        int        `db:"id" json:"id"`
	ChannelID int        `db:"channel_id" json:"channel_id"`
	UserID    int        `db:"user_id" json:"user_id"`
	Content   *string    `db:"content" json:"content,omitempty"`
	Type      string     `db:"type" json:"type"`
	FileURL   *string    `db:"file_url" json:"file_url,omitempty"`
	FileName  *string    `db:"file_name" json:"file_name,omitempty"`
	FileSize  *int64     `db:"file_size" json:"file_size,omitempty"`
	ReplyToID *int       `db:"reply_to_id" json:"reply_to_id,omitempty"`
	EditedAt  *time.Time `db:"edited_at" json:"edited_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// MessageReaction is a single emoji reaction on a message.
type MessageReaction struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"message_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Emoji     string    `db:"emoji" json:"emoji"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReplyPreview is the shallow view of a replied-to message. Available is
// false when the target was deleted.
type ReplyPreview struct {
	ID        int     `json:"id"`
	Content   *string `json:"content,omitempty"`
	UserID    int     `json:"user_id,omitempty"`
	Available bool    `json:"available"`
}

// MessageWithDetails is a message enriched with reactions and reply preview.
type MessageWithDetails struct {
	Message
	Reactions []MessageReaction `json:"reactions"`
	ReplyTo   *ReplyPreview     `json:"reply_to,omitempty"`
}

// MessageSearchResult is one ranked full-text search hit.
type MessageSearchResult struct {
	Message
	ChannelName string  `db:"channel_name" json:"channel_name"`
	Rank        float64 `db:"rank" json:"rank"`
}
