package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"team-chat-service/internal/models"
)

// SearchRepository performs ranked full-text retrieval over message content.
type SearchRepository interface {
	SearchMessages(ctx context.Context, userID int, query string, channelIDs []int, limit int, offset int) ([]models.MessageSearchResult, error)
}

// SearchRepo is a sqlx implementation of SearchRepository.
type SearchRepo struct {
	db *sqlx.DB
}

// NewSearchRepo constructs a SearchRepo.
func NewSearchRepo(db *sqlx.DB) *SearchRepo {
	return &SearchRepo{db: db}
}

// SearchMessages runs a ranked full-text search scoped to channels the
// caller participates in, ordered by rank rather than recency. An empty
// channelIDs filter means all of the caller's channels.
func (r *SearchRepo) SearchMessages(ctx context.Context, userID int, query string, channelIDs []int, limit int, offset int) ([]models.MessageSearchResult, error) {
	if channelIDs == nil {
		channelIDs = []int{}
	}
	sqlQuery := `SELECT m.id, m.channel_id, m.user_id, m.content, m.type, m.file_url, m.file_name, m.file_size,
            m.reply_to_id, m.edited_at, m.created_at, m.updated_at,
            c.name AS channel_name,
            ts_rank(m.content_tsv, plainto_tsquery('english', $2)) AS rank
        FROM messages m
        JOIN channels c ON c.id = m.channel_id AND c.is_active
        JOIN channel_participants p ON p.channel_id = m.channel_id AND p.user_id = $1 AND p.is_active
        WHERE m.content_tsv @@ plainto_tsquery('english', $2)
        AND (cardinality($3::int[]) = 0 OR m.channel_id = ANY($3::int[]))
        ORDER BY rank DESC, m.created_at DESC
        LIMIT $4 OFFSET $5`
	var results []models.MessageSearchResult
	err := r.db.SelectContext(ctx, &results, sqlQuery, userID, query, pq.Array(channelIDs), limit, offset)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.MessageSearchResult{}
	}
	return results, nil
}
