package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"team-chat-service/internal/models"
	"team-chat-service/internal/typing"
)

// TypingRepository maintains the durable typing-indicator fallback rows.
// The ephemeral broadcast path lives in the typing registry; rows here exist
// so late subscribers can still discover who is typing.
type TypingRepository interface {
	StartTyping(ctx context.Context, channelID int, userID int) (models.TypingIndicator, error)
	StopTyping(ctx context.Context, channelID int, userID int) error
	GetTypingUsers(ctx context.Context, channelID int) ([]models.TypingIndicator, error)
}

// TypingRepo is a sqlx implementation of TypingRepository.
type TypingRepo struct {
	db *sqlx.DB
}

// NewTypingRepo constructs a TypingRepo.
func NewTypingRepo(db *sqlx.DB) *TypingRepo {
	return &TypingRepo{db: db}
}

// StartTyping upserts the (channel, user) indicator with a fresh started_at.
func (r *TypingRepo) StartTyping(ctx context.Context, channelID int, userID int) (models.TypingIndicator, error) {
	var indicator models.TypingIndicator
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO typing_indicators (channel_id, user_id, started_at) VALUES ($1, $2, NOW())
         ON CONFLICT (channel_id, user_id) DO UPDATE SET started_at = NOW()
         RETURNING id, channel_id, user_id, started_at`,
		channelID, userID).StructScan(&indicator)
	return indicator, err
}

// StopTyping removes the indicator; stopping when absent is a no-op.
func (r *TypingRepo) StopTyping(ctx context.Context, channelID int, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM typing_indicators WHERE channel_id=$1 AND user_id=$2`, channelID, userID)
	return err
}

// GetTypingUsers returns indicators started within the stale window.
// Older rows are stale leftovers from clients that never sent a stop; they
// are filtered here rather than reaped eagerly.
func (r *TypingRepo) GetTypingUsers(ctx context.Context, channelID int) ([]models.TypingIndicator, error) {
	var indicators []models.TypingIndicator
	err := r.db.SelectContext(ctx, &indicators,
		`SELECT id, channel_id, user_id, started_at FROM typing_indicators
         WHERE channel_id=$1 AND started_at > NOW() - make_interval(secs => $2)
         ORDER BY started_at`, channelID, typing.StaleWindow.Seconds())
	return indicators, err
}
