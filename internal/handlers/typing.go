package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"team-chat-service/internal/broker"
	"team-chat-service/internal/models"
	"team-chat-service/internal/repositories"
)

// TypingHandler manages the dual durable+broadcast typing indicator writes.
type TypingHandler struct {
	channelRepo repositories.ChannelRepository
	typingRepo  repositories.TypingRepository
	publisher   broker.Publisher
}

// NewTypingHandler builds a TypingHandler.
func NewTypingHandler(channelRepo repositories.ChannelRepository, typingRepo repositories.TypingRepository, publisher broker.Publisher) *TypingHandler {
	return &TypingHandler{channelRepo: channelRepo, typingRepo: typingRepo, publisher: publisher}
}

// StartTyping records the durable fallback row and broadcasts the ephemeral
// hint. Both writes are best-effort: if the broadcast is lost late joiners
// still see the row, if the row write fails the broadcast still reaches
// connected clients. Neither failure is surfaced to the caller.
func (h *TypingHandler) StartTyping(c *gin.Context) {
	channelID, ok := channelIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	member, err := h.channelRepo.IsParticipant(c.Request.Context(), channelID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a channel member"})
		return
	}

	if _, err := h.typingRepo.StartTyping(c.Request.Context(), channelID, userID); err != nil {
		log.Printf("typing indicator write failed channel=%d user=%d: %v", channelID, userID, err)
	}
	publishEvent(c, h.publisher, models.ChannelEvent{
		Type:      models.EventTypingStart,
		ChannelID: channelID,
		UserID:    userID,
	})

	c.Status(http.StatusNoContent)
}

// StopTyping clears the durable row and broadcasts the stop event.
func (h *TypingHandler) StopTyping(c *gin.Context) {
	channelID, ok := channelIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	member, err := h.channelRepo.IsParticipant(c.Request.Context(), channelID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a channel member"})
		return
	}

	if err := h.typingRepo.StopTyping(c.Request.Context(), channelID, userID); err != nil {
		log.Printf("typing indicator delete failed channel=%d user=%d: %v", channelID, userID, err)
	}
	publishEvent(c, h.publisher, models.ChannelEvent{
		Type:      models.EventTypingStop,
		ChannelID: channelID,
		UserID:    userID,
	})

	c.Status(http.StatusNoContent)
}

// GetTypingUsers serves the durable fallback for clients that joined after
// the broadcast fired; only rows from the last 10 seconds are returned.
func (h *TypingHandler) GetTypingUsers(c *gin.Context) {
	channelID, ok := channelIDParam(c)
	if !ok {
		return
	}

	indicators, err := h.typingRepo.GetTypingUsers(c.Request.Context(), channelID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load typing indicators"})
		return
	}
	if indicators == nil {
		indicators = []models.TypingIndicator{}
	}

	c.JSON(http.StatusOK, gin.H{"typing": indicators})
}
