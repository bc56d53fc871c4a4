package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"team-chat-service/internal/models"
)

var (
	ErrChannelNotFound  = errors.New("channel not found")
	ErrChannelNameTaken = errors.New("channel name already taken")
)

// ChannelRepository abstracts channel and membership persistence.
type ChannelRepository interface {
	CreateChannel(ctx context.Context, name string, description *string, kind string, creatorID int) (models.Channel, error)
	GetChannel(ctx context.Context, channelID int) (models.Channel, error)
	ListChannels(ctx context.Context, userID int) ([]models.ChannelWithDetails, error)
	JoinChannel(ctx context.Context, channelID int, userID int) error
	LeaveChannel(ctx context.Context, channelID int, userID int) error
	IsParticipant(ctx context.Context, channelID int, userID int) (bool, error)
	ListParticipants(ctx context.Context, channelID int) ([]models.ChannelParticipant, error)
	TouchChannel(ctx context.Context, channelID int) error
	MarkChannelRead(ctx context.Context, channelID int, userID int) error
}

// ChannelRepo is a sqlx implementation of ChannelRepository.
type ChannelRepo struct {
	db *sqlx.DB
}

// NewChannelRepo constructs a ChannelRepo.
func NewChannelRepo(db *sqlx.DB) *ChannelRepo {
	return &ChannelRepo{db: db}
}

const channelColumns = `id, name, description, kind, created_by, created_at, updated_at, is_active`

// CreateChannel inserts a channel and its owner participant in one transaction.
// Name uniqueness among active channels is enforced case-insensitively.
func (r *ChannelRepo) CreateChannel(ctx context.Context, name string, description *string, kind string, creatorID int) (models.Channel, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Channel{}, err
	}
	defer tx.Rollback()

	var channel models.Channel
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO channels (name, description, kind, created_by) VALUES ($1, $2, $3, $4)
         RETURNING `+channelColumns,
		name, description, kind, creatorID).StructScan(&channel)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Channel{}, ErrChannelNameTaken
		}
		return models.Channel{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO channel_participants (channel_id, user_id, role) VALUES ($1, $2, $3)`,
		channel.ID, creatorID, models.RoleOwner); err != nil {
		return models.Channel{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Channel{}, err
	}
	return channel, nil
}

// GetChannel fetches a channel by id.
func (r *ChannelRepo) GetChannel(ctx context.Context, channelID int) (models.Channel, error) {
	var channel models.Channel
	err := r.db.GetContext(ctx, &channel, `SELECT `+channelColumns+` FROM channels WHERE id=$1 AND is_active`, channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Channel{}, ErrChannelNotFound
	}
	return channel, err
}

type channelDetailsRow struct {
	models.Channel
	ParticipantCount int `db:"participant_count"`
	UnreadCount      int `db:"unread_count"`
}

// ListChannels returns active channels ordered by most recent activity,
// annotated with participant count and the caller's unread count.
func (r *ChannelRepo) ListChannels(ctx context.Context, userID int) ([]models.ChannelWithDetails, error) {
	query := `SELECT c.id, c.name, c.description, c.kind, c.created_by, c.created_at, c.updated_at, c.is_active,
            (SELECT COUNT(*) FROM channel_participants p WHERE p.channel_id = c.id AND p.is_active) AS participant_count,
            (SELECT COUNT(*) FROM messages m
                WHERE m.channel_id = c.id
                AND m.created_at > COALESCE(cp.last_seen_at, 'epoch'::timestamptz)) AS unread_count
        FROM channels c
        LEFT JOIN channel_participants cp ON cp.channel_id = c.id AND cp.user_id = $1 AND cp.is_active
        WHERE c.is_active
        ORDER BY c.updated_at DESC`
	var rows []channelDetailsRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []models.ChannelWithDetails{}, nil
	}

	channelIDs := make([]int, 0, len(rows))
	for _, row := range rows {
		channelIDs = append(channelIDs, row.ID)
	}

	var latest []models.Message
	err := r.db.SelectContext(ctx, &latest,
		`SELECT DISTINCT ON (channel_id) `+messageColumns+`
         FROM messages WHERE channel_id = ANY($1)
         ORDER BY channel_id, created_at DESC, id DESC`, pq.Array(channelIDs))
	if err != nil {
		return nil, err
	}
	lastByChannel := make(map[int]models.Message, len(latest))
	for _, msg := range latest {
		lastByChannel[msg.ChannelID] = msg
	}

	result := make([]models.ChannelWithDetails, 0, len(rows))
	for _, row := range rows {
		details := models.ChannelWithDetails{
			Channel:          row.Channel,
			ParticipantCount: row.ParticipantCount,
			UnreadCount:      row.UnreadCount,
		}
		if msg, ok := lastByChannel[row.ID]; ok {
			last := msg
			details.LastMessage = &last
		}
		result = append(result, details)
	}
	return result, nil
}

// JoinChannel adds the user as an active member; rejoining is a no-op.
func (r *ChannelRepo) JoinChannel(ctx context.Context, channelID int, userID int) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO channel_participants (channel_id, user_id, role)
         SELECT id, $2, 'member' FROM channels WHERE id=$1 AND is_active
         ON CONFLICT (channel_id, user_id) DO UPDATE SET is_active = TRUE`,
		channelID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrChannelNotFound
	}
	return nil
}

// LeaveChannel soft-removes the user's membership; leaving twice is a no-op.
func (r *ChannelRepo) LeaveChannel(ctx context.Context, channelID int, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE channel_participants SET is_active = FALSE WHERE channel_id=$1 AND user_id=$2`,
		channelID, userID)
	return err
}

// IsParticipant checks whether a user is an active member of the channel.
func (r *ChannelRepo) IsParticipant(ctx context.Context, channelID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM channel_participants WHERE channel_id=$1 AND user_id=$2 AND is_active)`,
		channelID, userID)
	return exists, err
}

// ListParticipants returns the channel's active members, owners first.
func (r *ChannelRepo) ListParticipants(ctx context.Context, channelID int) ([]models.ChannelParticipant, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM channels WHERE id=$1 AND is_active)`, channelID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrChannelNotFound
	}

	var participants []models.ChannelParticipant
	err = r.db.SelectContext(ctx, &participants,
		`SELECT id, channel_id, user_id, role, joined_at, last_seen_at, is_active
         FROM channel_participants
         WHERE channel_id=$1 AND is_active
         ORDER BY CASE role WHEN 'owner' THEN 0 WHEN 'admin' THEN 1 ELSE 2 END, joined_at`,
		channelID)
	return participants, err
}

// TouchChannel bumps updated_at so the channel sorts to the top of the directory.
func (r *ChannelRepo) TouchChannel(ctx context.Context, channelID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE channels SET updated_at = NOW() WHERE id=$1`, channelID)
	return err
}

// MarkChannelRead advances the caller's read watermark to now.
func (r *ChannelRepo) MarkChannelRead(ctx context.Context, channelID int, userID int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE channel_participants SET last_seen_at = NOW() WHERE channel_id=$1 AND user_id=$2 AND is_active`,
		channelID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrChannelNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
