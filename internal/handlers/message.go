package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"team-chat-service/internal/broker"
	"team-chat-service/internal/models"
	"team-chat-service/internal/repositories"
	"team-chat-service/internal/telemetry"
)

// MessageHandler manages message and reaction endpoints.
type MessageHandler struct {
	channelRepo repositories.ChannelRepository
	messageRepo repositories.MessageRepository
	publisher   broker.Publisher
	audit       *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(channelRepo repositories.ChannelRepository, messageRepo repositories.MessageRepository, publisher broker.Publisher, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{
		channelRepo: channelRepo,
		messageRepo: messageRepo,
		publisher:   publisher,
		audit:       audit,
	}
}

// PostMessage stores a message and fans it out. The channel timestamp bump
// and the broadcast are best-effort; only the insert can fail the request.
func (h *MessageHandler) PostMessage(c *gin.Context) {
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

	var req struct {
		Content   *string `json:"content"`
		Type      string  `json:"type"`
		FileURL   *string `json:"file_url"`
		FileName  *string `json:"file_name"`
		FileSize  *int64  `json:"file_size"`
		ReplyToID *int    `json:"reply_to_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !hasContent(req.Content) && !hasContent(req.FileURL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message must have content or a file"})
		return
	}

	if req.ReplyToID != nil {
		target, err := h.messageRepo.GetMessage(c.Request.Context(), *req.ReplyToID)
		if err != nil {
			if errors.Is(err, repositories.ErrMessageNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "reply target not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify reply target"})
			return
		}
		if target.ChannelID != channelID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reply target belongs to another channel"})
			return
		}
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), repositories.CreateMessageParams{
		ChannelID: channelID,
		UserID:    userID,
		Content:   req.Content,
		Type:      req.Type,
		FileURL:   req.FileURL,
		FileName:  req.FileName,
		FileSize:  req.FileSize,
		ReplyToID: req.ReplyToID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	if err := h.channelRepo.TouchChannel(c.Request.Context(), channelID); err != nil {
		log.Printf("touch channel %d failed: %v", channelID, err)
	}
	publishEvent(c, h.publisher, models.ChannelEvent{
		Type:      models.EventMessageCreated,
		ChannelID: channelID,
		UserID:    userID,
		Message:   &msg,
	})
	h.audit.Emit(c.Request.Context(), "INFO", "message_sent", channelID, msg.ID, requestIDFromContext(c), userIDFromContext(c))

	c.JSON(http.StatusCreated, msg)
}

// GetMessages returns one page of messages oldest-first. Offset 0 is always
// the newest page; "load more" advances offset by what is already loaded.
func (h *MessageHandler) GetMessages(c *gin.Context) {
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

	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	msgs, err := h.messageRepo.GetMessages(c.Request.Context(), channelID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// EditMessage replaces a message's content and stamps edited_at. Ownership
// enforcement is an access-control concern layered outside this handler.
func (h *MessageHandler) EditMessage(c *gin.Context) {
	messageID, ok := messageIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messageRepo.EditMessage(c.Request.Context(), messageID, req.Content)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not edit message"})
		return
	}

	publishEvent(c, h.publisher, models.ChannelEvent{
		Type:      models.EventMessageUpdated,
		ChannelID: msg.ChannelID,
		UserID:    msg.UserID,
		Message:   &msg,
	})

	c.JSON(http.StatusOK, msg)
}

// DeleteMessage hard-deletes a message. Replies referencing it resolve their
// preview as unavailable afterwards.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	messageID, ok := messageIDParam(c)
	if !ok {
		return
	}

	msg, err := h.messageRepo.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load message"})
		return
	}

	if err := h.messageRepo.DeleteMessage(c.Request.Context(), messageID); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete message"})
		return
	}

	publishEvent(c, h.publisher, models.ChannelEvent{
		Type:      models.EventMessageDeleted,
		ChannelID: msg.ChannelID,
		MessageID: messageID,
	})
	h.audit.Emit(c.Request.Context(), "INFO", "message_deleted", msg.ChannelID, messageID, requestIDFromContext(c), userIDFromContext(c))

	c.Status(http.StatusNoContent)
}

// AddReaction records the caller's reaction; repeating it is a no-op.
func (h *MessageHandler) AddReaction(c *gin.Context) {
	messageID, ok := messageIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reaction, err := h.messageRepo.AddReaction(c.Request.Context(), messageID, userID, req.Emoji)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add reaction"})
		return
	}

	msg, err := h.messageRepo.GetMessage(c.Request.Context(), messageID)
	if err == nil {
		publishEvent(c, h.publisher, models.ChannelEvent{
			Type:      models.EventReactionAdded,
			ChannelID: msg.ChannelID,
			UserID:    userID,
			MessageID: messageID,
			Emoji:     req.Emoji,
		})
	}

	c.JSON(http.StatusCreated, reaction)
}

// RemoveReaction deletes the caller's reaction named in the emoji query param.
func (h *MessageHandler) RemoveReaction(c *gin.Context) {
	messageID, ok := messageIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	emoji := c.Query("emoji")
	if emoji == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emoji is required"})
		return
	}

	if err := h.messageRepo.RemoveReaction(c.Request.Context(), messageID, userID, emoji); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove reaction"})
		return
	}

	msg, err := h.messageRepo.GetMessage(c.Request.Context(), messageID)
	if err == nil {
		publishEvent(c, h.publisher, models.ChannelEvent{
			Type:      models.EventReactionRemoved,
			ChannelID: msg.ChannelID,
			UserID:    userID,
			MessageID: messageID,
			Emoji:     emoji,
		})
	}

	c.Status(http.StatusNoContent)
}

func messageIDParam(c *gin.Context) (int, bool) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return 0, false
	}
	return messageID, true
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return fallback
}

func hasContent(s *string) bool {
	return s != nil && *s != ""
}
