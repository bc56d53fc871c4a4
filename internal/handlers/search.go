package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"team-chat-service/internal/models"
	"team-chat-service/internal/repositories"
)

// SearchHandler serves ranked search and cursor-based history retrieval.
type SearchHandler struct {
	channelRepo repositories.ChannelRepository
	messageRepo repositories.MessageRepository
	searchRepo  repositories.SearchRepository
}

// NewSearchHandler builds a SearchHandler.
func NewSearchHandler(channelRepo repositories.ChannelRepository, messageRepo repositories.MessageRepository, searchRepo repositories.SearchRepository) *SearchHandler {
	return &SearchHandler{channelRepo: channelRepo, messageRepo: messageRepo, searchRepo: searchRepo}
}

// SearchMessages runs ranked full-text search over the caller's channels.
// Minimum query length is a UI concern; an empty query returns no results.
func (h *SearchHandler) SearchMessages(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"results": []models.MessageSearchResult{}})
		return
	}

	channelIDs, ok := channelIDsQuery(c)
	if !ok {
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	userID := c.GetInt("userID")

	results, err := h.searchRepo.SearchMessages(c.Request.Context(), userID, query, channelIDs, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// GetMessageHistory pages strictly backwards from a timestamp cursor, for
// infinite scroll. This is deliberately a different pagination scheme from
// GetMessages' offset windows.
func (h *SearchHandler) GetMessageHistory(c *gin.Context) {
	channelID, ok := channelIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	member, err := h.channelRepo.IsParticipant(c.Request.Context(), channelID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a channel member"})
		return
	}

	before := time.Now()
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before cursor"})
			return
		}
		before = parsed
	}
	limit := intQuery(c, "limit", 50)

	msgs, err := h.messageRepo.GetMessageHistory(c.Request.Context(), channelID, before, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func channelIDsQuery(c *gin.Context) ([]int, bool) {
	raw := c.Query("channel_ids")
	if raw == "" {
		return nil, true
	}
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel_ids"})
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
