package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"team-chat-service/internal/models"
	"team-chat-service/internal/repositories"
	"team-chat-service/internal/telemetry"
)

// ChannelHandler manages the channel directory endpoints.
type ChannelHandler struct {
	channelRepo repositories.ChannelRepository
	audit       *telemetry.AuditEmitter
}

// NewChannelHandler builds a ChannelHandler.
func NewChannelHandler(channelRepo repositories.ChannelRepository, audit *telemetry.AuditEmitter) *ChannelHandler {
	return &ChannelHandler{channelRepo: channelRepo, audit: audit}
}

// CreateChannel validates the name and creates the channel with the caller
// as owner.
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	var req struct {
		Name        string  `json:"name" binding:"required"`
		Description *string `json:"description"`
		Kind        string  `json:"kind"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(req.Name)
	if length := utf8.RuneCountInString(name); length < 2 || length > 50 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel name must be between 2 and 50 characters"})
		return
	}

	kind := req.Kind
	if kind == "" {
		kind = models.ChannelPublic
	}
	if kind != models.ChannelPublic && kind != models.ChannelPrivate && kind != models.ChannelDirect {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel kind"})
		return
	}

	userID := c.GetInt("userID")
	channel, err := h.channelRepo.CreateChannel(c.Request.Context(), name, req.Description, kind, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrChannelNameTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "channel name already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create channel"})
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO", "channel_created", channel.ID, 0, requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusCreated, channel)
}

// ListChannels returns active channels with directory annotations.
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	userID := c.GetInt("userID")

	channels, err := h.channelRepo.ListChannels(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load channels"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

// JoinChannel adds the caller as a member; joining twice is a no-op.
func (h *ChannelHandler) JoinChannel(c *gin.Context) {
	channelID, ok := channelIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	if err := h.channelRepo.JoinChannel(c.Request.Context(), channelID, userID); err != nil {
		if errors.Is(err, repositories.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not join channel"})
		return
	}

	c.Status(http.StatusNoContent)
}

// LeaveChannel soft-removes the caller's membership.
func (h *ChannelHandler) LeaveChannel(c *gin.Context) {
	channelID, ok := channelIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	if err := h.channelRepo.LeaveChannel(c.Request.Context(), channelID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not leave channel"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListParticipants returns the channel's active members, owners first.
// Callers must themselves be members.
func (h *ChannelHandler) ListParticipants(c *gin.Context) {
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

	participants, err := h.channelRepo.ListParticipants(c.Request.Context(), channelID)
	if err != nil {
		if errors.Is(err, repositories.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load participants"})
		return
	}
	if participants == nil {
		participants = []models.ChannelParticipant{}
	}

	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

// MarkChannelRead advances the caller's read watermark, resetting the unread
// count shown in the directory.
func (h *ChannelHandler) MarkChannelRead(c *gin.Context) {
	channelID, ok := channelIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	if err := h.channelRepo.MarkChannelRead(c.Request.Context(), channelID, userID); err != nil {
		if errors.Is(err, repositories.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not a channel member"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark channel read"})
		return
	}

	c.Status(http.StatusNoContent)
}

func channelIDParam(c *gin.Context) (int, bool) {
	channelID, err := strconv.Atoi(c.Param("channel_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return 0, false
	}
	return channelID, true
}
