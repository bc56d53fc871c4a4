package handlers

import (
	"log"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"team-chat-service/internal/broker"
	"team-chat-service/internal/models"
	"team-chat-service/internal/repositories"
	"team-chat-service/internal/storage"
	"team-chat-service/internal/telemetry"
)

// AttachmentHandler uploads binaries and attaches them to messages.
type AttachmentHandler struct {
	channelRepo repositories.ChannelRepository
	messageRepo repositories.MessageRepository
	store       storage.ObjectStore
	publisher   broker.Publisher
	audit       *telemetry.AuditEmitter
}

// NewAttachmentHandler builds an AttachmentHandler.
func NewAttachmentHandler(channelRepo repositories.ChannelRepository, messageRepo repositories.MessageRepository, store storage.ObjectStore, publisher broker.Publisher, audit *telemetry.AuditEmitter) *AttachmentHandler {
	return &AttachmentHandler{
		channelRepo: channelRepo,
		messageRepo: messageRepo,
		store:       store,
		publisher:   publisher,
		audit:       audit,
	}
}

// PostAttachment uploads the file then sends a message referencing it. An
// upload failure aborts the whole operation; no message row is created
// without its attachment.
func (h *AttachmentHandler) PostAttachment(c *gin.Context) {
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

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(fileHeader.Filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer file.Close()

	result, err := h.store.Upload(c.Request.Context(), fileHeader.Filename, contentType, fileHeader.Size, file, nil)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to store attachment"})
		return
	}

	msgType := models.MessageFile
	if storage.IsImageFile(contentType) {
		msgType = models.MessageImage
	}
	content := c.PostForm("caption")
	if content == "" {
		content = fileHeader.Filename
	}
	fileName := fileHeader.Filename

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), repositories.CreateMessageParams{
		ChannelID: channelID,
		UserID:    userID,
		Content:   &content,
		Type:      msgType,
		FileURL:   &result.URL,
		FileName:  &fileName,
		FileSize:  &result.Bytes,
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
	h.audit.Emit(c.Request.Context(), "INFO", "attachment_sent", channelID, msg.ID, requestIDFromContext(c), userIDFromContext(c))

	c.JSON(http.StatusCreated, msg)
}
