package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"team-chat-service/internal/mocks"
	"team-chat-service/internal/models"
	"team-chat-service/internal/repositories"
	"team-chat-service/internal/telemetry"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func setupMessageRouter(handler *MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/channels/:channel_id/messages", handler.GetMessages)
	r.POST("/channels/:channel_id/messages", handler.PostMessage)
	r.PUT("/messages/:message_id", handler.EditMessage)
	r.DELETE("/messages/:message_id", handler.DeleteMessage)
	r.POST("/messages/:message_id/reactions", handler.AddReaction)
	r.DELETE("/messages/:message_id/reactions", handler.RemoveReaction)
	return r
}

func TestPostMessageSuccess(t *testing.T) {
	channelRepo := new(mocks.ChannelRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	publisher := new(mocks.BrokerPublisherMock)
	handler := NewMessageHandler(channelRepo, messageRepo, publisher, nil)
	router := setupMessageRouter(handler)

	channelRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	messageRepo.On("CreateMessage", mock.Anything, repositories.CreateMessageParams{
		ChannelID: 5,
		UserID:    1,
		Content:   strPtr("hello"),
	}).Return(models.Message{ID: 9, ChannelID: 5, UserID: 1, Content: strPtr("hello"), Type: models.MessageText}, nil).Once()
	channelRepo.On("TouchChannel", mock.Anything, 5).Return(nil).Once()
	publisher.On("PublishChannelEvent", mock.Anything, mock.MatchedBy(func(event models.ChannelEvent) bool {
		return event.Type == models.EventMessageCreated && event.ChannelID == 5 && event.Message != nil && event.Message.ID == 9
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/channels/5/messages", bytes.NewBufferString(`{"content":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var msg models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&msg))
	assert.Equal(t, 9, msg.ID)
	channelRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestPostMessageNotMember(t *testing.T) {
	channelRepo := new(mocks.ChannelRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(channelRepo, messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	channelRepo.On("IsParticipant", mock.Anything, 5, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/channels/5/messages", bytes.NewBufferString(`{"content":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messageRepo.AssertNotCalled(t, "CreateMessage")
}

func TestPostMessageEmptyBody(t *testing.T) {
	channelRepo := new(mocks.ChannelRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(channelRepo, messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	channelRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/channels/5/messages", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messageRepo.AssertNotCalled(t, "CreateMessage")
}

func TestPostMessageTouchFailureIsIgnored(t *testing.T) {
	channelRepo := new(mocks.ChannelRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(channelRepo, messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	channelRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	messageRepo.On("CreateMessage", mock.Anything, mock.Anything).
		Return(models.Message{ID: 9, ChannelID: 5, UserID: 1, Content: strPtr("hello")}, nil).Once()
	channelRepo.On("TouchChannel", mock.Anything, 5).Return(assert.AnError).Once()

	req := httptest.NewRequest(http.MethodPost, "/channels/5/messages", bytes.NewBufferString(`{"content":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	channelRepo.AssertExpectations(t)
}

func TestPostMessageReplyTargetMissing(t *testing.T) {
	channelRepo := new(mocks.ChannelRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(channelRepo, messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	channelRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	messageRepo.On("GetMessage", mock.Anything, 42).
		Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/channels/5/messages",
		bytes.NewBufferString(`{"content":"hi","reply_to_id":42}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messageRepo.AssertNotCalled(t, "CreateMessage")
}

func TestPostMessageReplyTargetWrongChannel(t *testing.T) {
	channelRepo := new(mocks.ChannelRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(channelRepo, messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	channelRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	messageRepo.On("GetMessage", mock.Anything, 42).
		Return(models.Message{ID: 42, ChannelID: 8}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/channels/5/messages",
		bytes.NewBufferString(`{"content":"hi","reply_to_id":42}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messageRepo.AssertNotCalled(t, "CreateMessage")
}

func TestPostMessageReplySameChannel(t *testing.T) {
	channelRepo := new(mocks.ChannelRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(channelRepo, messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	channelRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	messageRepo.On("GetMessage", mock.Anything, 42).
		Return(models.Message{ID: 42, ChannelID: 5}, nil).Once()
	messageRepo.On("CreateMessage", mock.Anything, repositories.CreateMessageParams{
		ChannelID: 5,
		UserID:    1,
		Content:   strPtr("hi"),
		ReplyToID: intPtr(42),
	}).Return(models.Message{ID: 43, ChannelID: 5, UserID: 1, ReplyToID: intPtr(42)}, nil).Once()
	channelRepo.On("TouchChannel", mock.Anything, 5).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/channels/5/messages",
		bytes.NewBufferString(`{"content":"hi","reply_to_id":42}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestGetMessagesSuccess(t *testing.T) {
	channelRepo := new(mocks.ChannelRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(channelRepo, messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	channelRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	messageRepo.On("GetMessages", mock.Anything, 5, 20, 40).Return([]models.MessageWithDetails{
		{Message: models.Message{ID: 1, ChannelID: 5}},
		{Message: models.Message{ID: 2, ChannelID: 5}},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/channels/5/messages?limit=20&offset=40", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestGetMessagesDefaultPaging(t *testing.T) {
	channelRepo := new(mocks.ChannelRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(channelRepo, messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	channelRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	messageRepo.On("GetMessages", mock.Anything, 5, 50, 0).Return([]models.MessageWithDetails{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/channels/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestEditMessageSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	publisher := new(mocks.BrokerPublisherMock)
	handler := NewMessageHandler(new(mocks.ChannelRepositoryMock), messageRepo, publisher, nil)
	router := setupMessageRouter(handler)

	messageRepo.On("EditMessage", mock.Anything, 9, "edited").
		Return(models.Message{ID: 9, ChannelID: 5, UserID: 1, Content: strPtr("edited")}, nil).Once()
	publisher.On("PublishChannelEvent", mock.Anything, mock.MatchedBy(func(event models.ChannelEvent) bool {
		return event.Type == models.EventMessageUpdated && event.ChannelID == 5
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/messages/9", bytes.NewBufferString(`{"content":"edited"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messageRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestEditMessageNotFound(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(new(mocks.ChannelRepositoryMock), messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	messageRepo.On("EditMessage", mock.Anything, 9, "edited").
		Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodPut, "/messages/9", bytes.NewBufferString(`{"content":"edited"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestDeleteMessageSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	publisher := new(mocks.BrokerPublisherMock)
	handler := NewMessageHandler(new(mocks.ChannelRepositoryMock), messageRepo, publisher, nil)
	router := setupMessageRouter(handler)

	messageRepo.On("GetMessage", mock.Anything, 9).
		Return(models.Message{ID: 9, ChannelID: 5, UserID: 1}, nil).Once()
	messageRepo.On("DeleteMessage", mock.Anything, 9).Return(nil).Once()
	publisher.On("PublishChannelEvent", mock.Anything, mock.MatchedBy(func(event models.ChannelEvent) bool {
		return event.Type == models.EventMessageDeleted && event.MessageID == 9
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	messageRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestDeleteMessageNotFound(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(new(mocks.ChannelRepositoryMock), messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	messageRepo.On("GetMessage", mock.Anything, 9).
		Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	messageRepo.AssertNotCalled(t, "DeleteMessage")
}

func TestAddReactionSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	publisher := new(mocks.BrokerPublisherMock)
	handler := NewMessageHandler(new(mocks.ChannelRepositoryMock), messageRepo, publisher, nil)
	router := setupMessageRouter(handler)

	messageRepo.On("AddReaction", mock.Anything, 9, 1, "👍").
		Return(models.MessageReaction{ID: 2, MessageID: 9, UserID: 1, Emoji: "👍"}, nil).Once()
	messageRepo.On("GetMessage", mock.Anything, 9).
		Return(models.Message{ID: 9, ChannelID: 5}, nil).Once()
	publisher.On("PublishChannelEvent", mock.Anything, mock.MatchedBy(func(event models.ChannelEvent) bool {
		return event.Type == models.EventReactionAdded && event.Emoji == "👍"
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages/9/reactions", bytes.NewBufferString(`{"emoji":"👍"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	messageRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestAddReactionMessageGone(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(new(mocks.ChannelRepositoryMock), messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	messageRepo.On("AddReaction", mock.Anything, 9, 1, "👍").
		Return(models.MessageReaction{}, repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages/9/reactions", bytes.NewBufferString(`{"emoji":"👍"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestRemoveReactionSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	publisher := new(mocks.BrokerPublisherMock)
	handler := NewMessageHandler(new(mocks.ChannelRepositoryMock), messageRepo, publisher, nil)
	router := setupMessageRouter(handler)

	messageRepo.On("RemoveReaction", mock.Anything, 9, 1, "👍").Return(nil).Once()
	messageRepo.On("GetMessage", mock.Anything, 9).
		Return(models.Message{ID: 9, ChannelID: 5}, nil).Once()
	publisher.On("PublishChannelEvent", mock.Anything, mock.MatchedBy(func(event models.ChannelEvent) bool {
		return event.Type == models.EventReactionRemoved && event.Emoji == "👍"
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/9/reactions?emoji=👍", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	messageRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestRemoveReactionMissingEmoji(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(new(mocks.ChannelRepositoryMock), messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	req := httptest.NewRequest(http.MethodDelete, "/messages/9/reactions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messageRepo.AssertNotCalled(t, "RemoveReaction")
}

func TestPostMessageEmitsAudit(t *testing.T) {
	channelRepo := new(mocks.ChannelRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	publisher := new(mocks.BrokerPublisherMock)
	busPublisher := new(mocks.PublisherMock)
	audit := telemetry.NewAuditEmitter(busPublisher, "audit.chat", "team-chat-service", "test")
	handler := NewMessageHandler(channelRepo, messageRepo, publisher, audit)
	router := setupMessageRouter(handler)

	channelRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	messageRepo.On("CreateMessage", mock.Anything, repositories.CreateMessageParams{
		ChannelID: 5,
		UserID:    1,
		Content:   strPtr("hello"),
	}).Return(models.Message{ID: 9, ChannelID: 5, UserID: 1, Content: strPtr("hello"), Type: models.MessageText}, nil).Once()
	channelRepo.On("TouchChannel", mock.Anything, 5).Return(nil).Once()
	publisher.On("PublishChannelEvent", mock.Anything, mock.Anything).Return(nil).Once()
	busPublisher.On("Publish", mock.Anything, "audit.chat", mock.MatchedBy(func(envelope telemetry.AuditEnvelope) bool {
		return envelope.Payload.Action == "message_sent" &&
			envelope.Payload.ChannelID == 5 &&
			envelope.Payload.MessageID == 9 &&
			envelope.UserID != nil && *envelope.UserID == 1
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/channels/5/messages", bytes.NewBufferString(`{"content":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	busPublisher.AssertExpectations(t)
}

func TestPostMessageAuditFailureStillCreates(t *testing.T) {
	channelRepo := new(mocks.ChannelRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	publisher := new(mocks.BrokerPublisherMock)
	busPublisher := new(mocks.PublisherMock)
	audit := telemetry.NewAuditEmitter(busPublisher, "audit.chat", "team-chat-service", "test")
	handler := NewMessageHandler(channelRepo, messageRepo, publisher, audit)
	router := setupMessageRouter(handler)

	channelRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	messageRepo.On("CreateMessage", mock.Anything, mock.Anything).
		Return(models.Message{ID: 9, ChannelID: 5, UserID: 1, Content: strPtr("hello"), Type: models.MessageText}, nil).Once()
	channelRepo.On("TouchChannel", mock.Anything, 5).Return(nil).Once()
	publisher.On("PublishChannelEvent", mock.Anything, mock.Anything).Return(nil).Once()
	busPublisher.On("Publish", mock.Anything, "audit.chat", mock.Anything).Return(assert.AnError).Once()

	req := httptest.NewRequest(http.MethodPost, "/channels/5/messages", bytes.NewBufferString(`{"content":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	busPublisher.AssertExpectations(t)
}
