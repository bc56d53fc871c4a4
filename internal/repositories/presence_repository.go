package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"team-chat-service/internal/models"
)

// PresenceRepository maintains per-user availability rows.
type PresenceRepository interface {
	UpdatePresence(ctx context.Context, userID int, status string) (models.UserPresence, error)
	GetPresence(ctx context.Context, userID int) (models.UserPresence, error)
	GetOnlineUsers(ctx context.Context) ([]models.UserPresence, error)
}

// PresenceRepo is a sqlx implementation of PresenceRepository.
type PresenceRepo struct {
	db *sqlx.DB
}

// NewPresenceRepo constructs a PresenceRepo.
func NewPresenceRepo(db *sqlx.DB) *PresenceRepo {
	return &PresenceRepo{db: db}
}

// UpdatePresence upserts the user's presence row with a fresh last_seen.
func (r *PresenceRepo) UpdatePresence(ctx context.Context, userID int, status string) (models.UserPresence, error) {
	var presence models.UserPresence
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO user_presence (user_id, status, last_seen, updated_at) VALUES ($1, $2, NOW(), NOW())
         ON CONFLICT (user_id) DO UPDATE SET status = EXCLUDED.status, last_seen = NOW(), updated_at = NOW()
         RETURNING user_id, status, last_seen, updated_at`,
		userID, status).StructScan(&presence)
	return presence, err
}

// GetPresence returns the user's current presence row, defaulting to offline
// when none was ever written.
func (r *PresenceRepo) GetPresence(ctx context.Context, userID int) (models.UserPresence, error) {
	var presence models.UserPresence
	err := r.db.GetContext(ctx, &presence,
		`SELECT user_id, status, last_seen, updated_at FROM user_presence WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserPresence{UserID: userID, Status: models.StatusOffline}, nil
	}
	if err != nil {
		return models.UserPresence{}, err
	}
	return presence, nil
}

// GetOnlineUsers lists users visible as present, most recently seen first.
// Busy users are deliberately excluded alongside offline ones.
func (r *PresenceRepo) GetOnlineUsers(ctx context.Context) ([]models.UserPresence, error) {
	var users []models.UserPresence
	err := r.db.SelectContext(ctx, &users,
		`SELECT user_id, status, last_seen, updated_at FROM user_presence
         WHERE status IN ('online', 'away')
         ORDER BY last_seen DESC`)
	return users, err
}
