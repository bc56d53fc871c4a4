package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"team-chat-service/internal/broker"
	"team-chat-service/internal/models"
	"team-chat-service/internal/repositories"
)

// PresenceHandler manages user availability endpoints.
type PresenceHandler struct {
	presenceRepo repositories.PresenceRepository
	publisher    broker.Publisher
}

// NewPresenceHandler builds a PresenceHandler.
func NewPresenceHandler(presenceRepo repositories.PresenceRepository, publisher broker.Publisher) *PresenceHandler {
	return &PresenceHandler{presenceRepo: presenceRepo, publisher: publisher}
}

// UpdatePresence upserts the caller's presence row. Any status can follow
// any other; there are no forbidden transitions.
func (h *PresenceHandler) UpdatePresence(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid presence status"})
		return
	}

	userID := c.GetInt("userID")
	presence, err := h.presenceRepo.UpdatePresence(c.Request.Context(), userID, req.Status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update presence"})
		return
	}

	// Presence is not channel-scoped; the event goes out on the shared
	// topic (channel 0) for any instance that mirrors presence state.
	publishEvent(c, h.publisher, models.ChannelEvent{
		Type:   models.EventPresenceChanged,
		UserID: userID,
		Status: presence.Status,
	})

	c.JSON(http.StatusOK, presence)
}

// GetPresence returns one user's presence row, defaulting to offline when
// the user never reported a status.
func (h *PresenceHandler) GetPresence(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	presence, err := h.presenceRepo.GetPresence(c.Request.Context(), targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load presence"})
		return
	}

	c.JSON(http.StatusOK, presence)
}

// GetOnlineUsers lists users with online or away status, most recently seen
// first. Busy users are intentionally not shown.
func (h *PresenceHandler) GetOnlineUsers(c *gin.Context) {
	users, err := h.presenceRepo.GetOnlineUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load online users"})
		return
	}
	if users == nil {
		users = []models.UserPresence{}
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}
