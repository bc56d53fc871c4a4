package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"team-chat-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `id, channel_id, user_id, content, type, file_url, file_name, file_size, reply_to_id, edited_at, created_at, updated_at`

// CreateMessageParams carries everything needed to persist a message.
type CreateMessageParams struct {
	ChannelID int
	UserID    int
	Content   *string
	Type      string
	FileURL   *string
	FileName  *string
	FileSize  *int64
	ReplyToID *int
}

// MessageRepository defines interactions for channel messages and reactions.
type MessageRepository interface {
	CreateMessage(ctx context.Context, params CreateMessageParams) (models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	GetMessages(ctx context.Context, channelID int, limit int, offset int) ([]models.MessageWithDetails, error)
	GetMessageHistory(ctx context.Context, channelID int, before time.Time, limit int) ([]models.MessageWithDetails, error)
	EditMessage(ctx context.Context, messageID int, content string) (models.Message, error)
	DeleteMessage(ctx context.Context, messageID int) error
	AddReaction(ctx context.Context, messageID int, userID int, emoji string) (models.MessageReaction, error)
	RemoveReaction(ctx context.Context, messageID int, userID int, emoji string) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message in a channel.
func (r *MessageRepo) CreateMessage(ctx context.Context, params CreateMessageParams) (models.Message, error) {
	msgType := params.Type
	if msgType == "" {
		msgType = models.MessageText
	}
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (channel_id, user_id, content, type, file_url, file_name, file_size, reply_to_id)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING `+messageColumns,
		params.ChannelID, params.UserID, params.Content, msgType,
		params.FileURL, params.FileName, params.FileSize, params.ReplyToID).StructScan(&msg)
	return msg, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// GetMessages returns a page of messages oldest-first. The underlying fetch
// is newest-first with limit/offset and then reversed, so offset 0 is always
// the newest page; callers paging backwards advance offset by what they have
// already loaded.
func (r *MessageRepo) GetMessages(ctx context.Context, channelID int, limit int, offset int) ([]models.MessageWithDetails, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE channel_id=$1
         ORDER BY created_at DESC, id DESC
         LIMIT $2 OFFSET $3`, channelID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return r.enrichMessages(ctx, msgs)
}

// GetMessageHistory returns messages strictly older than the cursor,
// oldest-first within the page, for backward infinite scroll.
func (r *MessageRepo) GetMessageHistory(ctx context.Context, channelID int, before time.Time, limit int) ([]models.MessageWithDetails, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE channel_id=$1 AND created_at < $2
         ORDER BY created_at DESC, id DESC
         LIMIT $3`, channelID, before, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return r.enrichMessages(ctx, msgs)
}

// EditMessage replaces the content and stamps edited_at.
func (r *MessageRepo) EditMessage(ctx context.Context, messageID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`UPDATE messages SET content=$2, edited_at=NOW(), updated_at=NOW() WHERE id=$1
         RETURNING `+messageColumns, messageID, content).StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// DeleteMessage removes the message row entirely. Reply references to it
// become dangling and are resolved as unavailable by readers.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// AddReaction records a reaction; repeating the same (message, user, emoji)
// leaves a single row.
func (r *MessageRepo) AddReaction(ctx context.Context, messageID int, userID int, emoji string) (models.MessageReaction, error) {
	var reaction models.MessageReaction
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO message_reactions (message_id, user_id, emoji) VALUES ($1, $2, $3)
         ON CONFLICT (message_id, user_id, emoji) DO NOTHING
         RETURNING id, message_id, user_id, emoji, created_at`,
		messageID, userID, emoji).StructScan(&reaction)
	if errors.Is(err, sql.ErrNoRows) {
		// Conflict path: the reaction already exists, return it.
		err = r.db.GetContext(ctx, &reaction,
			`SELECT id, message_id, user_id, emoji, created_at FROM message_reactions
             WHERE message_id=$1 AND user_id=$2 AND emoji=$3`, messageID, userID, emoji)
	}
	if isForeignKeyViolation(err) {
		return models.MessageReaction{}, ErrMessageNotFound
	}
	return reaction, err
}

// RemoveReaction deletes the caller's reaction if present.
func (r *MessageRepo) RemoveReaction(ctx context.Context, messageID int, userID int, emoji string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM message_reactions WHERE message_id=$1 AND user_id=$2 AND emoji=$3`,
		messageID, userID, emoji)
	return err
}

// enrichMessages attaches grouped reactions and shallow reply previews.
func (r *MessageRepo) enrichMessages(ctx context.Context, msgs []models.Message) ([]models.MessageWithDetails, error) {
	result := make([]models.MessageWithDetails, 0, len(msgs))
	if len(msgs) == 0 {
		return result, nil
	}

	messageIDs := make([]int, 0, len(msgs))
	replyIDs := make([]int, 0)
	for _, msg := range msgs {
		messageIDs = append(messageIDs, msg.ID)
		if msg.ReplyToID != nil {
			replyIDs = append(replyIDs, *msg.ReplyToID)
		}
	}

	var reactions []models.MessageReaction
	err := r.db.SelectContext(ctx, &reactions,
		`SELECT id, message_id, user_id, emoji, created_at FROM message_reactions
         WHERE message_id = ANY($1) ORDER BY created_at, id`, pq.Array(messageIDs))
	if err != nil {
		return nil, err
	}
	reactionsByMessage := make(map[int][]models.MessageReaction)
	for _, reaction := range reactions {
		reactionsByMessage[reaction.MessageID] = append(reactionsByMessage[reaction.MessageID], reaction)
	}

	replyTargets := make(map[int]models.Message)
	if len(replyIDs) > 0 {
		var targets []models.Message
		err := r.db.SelectContext(ctx, &targets,
			`SELECT `+messageColumns+` FROM messages WHERE id = ANY($1)`, pq.Array(replyIDs))
		if err != nil {
			return nil, err
		}
		for _, target := range targets {
			replyTargets[target.ID] = target
		}
	}

	for _, msg := range msgs {
		details := models.MessageWithDetails{Message: msg, Reactions: reactionsByMessage[msg.ID]}
		if details.Reactions == nil {
			details.Reactions = []models.MessageReaction{}
		}
		if msg.ReplyToID != nil {
			details.ReplyTo = buildReplyPreview(*msg.ReplyToID, replyTargets)
		}
		result = append(result, details)
	}
	return result, nil
}

// buildReplyPreview resolves a reply target, marking deleted targets unavailable.
func buildReplyPreview(replyToID int, targets map[int]models.Message) *models.ReplyPreview {
	target, ok := targets[replyToID]
	if !ok {
		return &models.ReplyPreview{ID: replyToID, Available: false}
	}
	return &models.ReplyPreview{
		ID:        target.ID,
		Content:   target.Content,
		UserID:    target.UserID,
		Available: true,
	}
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return false
}
