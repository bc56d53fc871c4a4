package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"team-chat-service/internal/broker"
	"team-chat-service/internal/models"
	"team-chat-service/internal/repositories"
	"team-chat-service/internal/storage"
)

type ChannelRepositoryMock struct {
	mock.Mock
}

func (m *ChannelRepositoryMock) CreateChannel(ctx context.Context, name string, description *string, kind string, creatorID int) (models.Channel, error) {
	args := m.Called(ctx, name, description, kind, creatorID)
	var channel models.Channel
	if val := args.Get(0); val != nil {
		channel = val.(models.Channel)
	}
	return channel, args.Error(1)
}

func (m *ChannelRepositoryMock) GetChannel(ctx context.Context, channelID int) (models.Channel, error) {
	args := m.Called(ctx, channelID)
	var channel models.Channel
	if val := args.Get(0); val != nil {
		channel = val.(models.Channel)
	}
	return channel, args.Error(1)
}

func (m *ChannelRepositoryMock) ListChannels(ctx context.Context, userID int) ([]models.ChannelWithDetails, error) {
	args := m.Called(ctx, userID)
	var list []models.ChannelWithDetails
	if val := args.Get(0); val != nil {
		list = val.([]models.ChannelWithDetails)
	}
	return list, args.Error(1)
}

func (m *ChannelRepositoryMock) JoinChannel(ctx context.Context, channelID int, userID int) error {
	args := m.Called(ctx, channelID, userID)
	return args.Error(0)
}

func (m *ChannelRepositoryMock) LeaveChannel(ctx context.Context, channelID int, userID int) error {
	args := m.Called(ctx, channelID, userID)
	return args.Error(0)
}

func (m *ChannelRepositoryMock) IsParticipant(ctx context.Context, channelID int, userID int) (bool, error) {
	args := m.Called(ctx, channelID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChannelRepositoryMock) ListParticipants(ctx context.Context, channelID int) ([]models.ChannelParticipant, error) {
	args := m.Called(ctx, channelID)
	var participants []models.ChannelParticipant
	if val := args.Get(0); val != nil {
		participants = val.([]models.ChannelParticipant)
	}
	return participants, args.Error(1)
}

func (m *ChannelRepositoryMock) TouchChannel(ctx context.Context, channelID int) error {
	args := m.Called(ctx, channelID)
	return args.Error(0)
}

func (m *ChannelRepositoryMock) MarkChannelRead(ctx context.Context, channelID int, userID int) error {
	args := m.Called(ctx, channelID, userID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, params repositories.CreateMessageParams) (models.Message, error) {
	args := m.Called(ctx, params)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessages(ctx context.Context, channelID int, limit int, offset int) ([]models.MessageWithDetails, error) {
	args := m.Called(ctx, channelID, limit, offset)
	var msgs []models.MessageWithDetails
	if val := args.Get(0); val != nil {
		msgs = val.([]models.MessageWithDetails)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessageHistory(ctx context.Context, channelID int, before time.Time, limit int) ([]models.MessageWithDetails, error) {
	args := m.Called(ctx, channelID, before, limit)
	var msgs []models.MessageWithDetails
	if val := args.Get(0); val != nil {
		msgs = val.([]models.MessageWithDetails)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) EditMessage(ctx context.Context, messageID int, content string) (models.Message, error) {
	args := m.Called(ctx, messageID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteMessage(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) AddReaction(ctx context.Context, messageID int, userID int, emoji string) (models.MessageReaction, error) {
	args := m.Called(ctx, messageID, userID, emoji)
	var reaction models.MessageReaction
	if val := args.Get(0); val != nil {
		reaction = val.(models.MessageReaction)
	}
	return reaction, args.Error(1)
}

func (m *MessageRepositoryMock) RemoveReaction(ctx context.Context, messageID int, userID int, emoji string) error {
	args := m.Called(ctx, messageID, userID, emoji)
	return args.Error(0)
}

type PresenceRepositoryMock struct {
	mock.Mock
}

func (m *PresenceRepositoryMock) UpdatePresence(ctx context.Context, userID int, status string) (models.UserPresence, error) {
	args := m.Called(ctx, userID, status)
	var presence models.UserPresence
	if val := args.Get(0); val != nil {
		presence = val.(models.UserPresence)
	}
	return presence, args.Error(1)
}

func (m *PresenceRepositoryMock) GetPresence(ctx context.Context, userID int) (models.UserPresence, error) {
	args := m.Called(ctx, userID)
	var presence models.UserPresence
	if val := args.Get(0); val != nil {
		presence = val.(models.UserPresence)
	}
	return presence, args.Error(1)
}

func (m *PresenceRepositoryMock) GetOnlineUsers(ctx context.Context) ([]models.UserPresence, error) {
	args := m.Called(ctx)
	var users []models.UserPresence
	if val := args.Get(0); val != nil {
		users = val.([]models.UserPresence)
	}
	return users, args.Error(1)
}

type TypingRepositoryMock struct {
	mock.Mock
}

func (m *TypingRepositoryMock) StartTyping(ctx context.Context, channelID int, userID int) (models.TypingIndicator, error) {
	args := m.Called(ctx, channelID, userID)
	var indicator models.TypingIndicator
	if val := args.Get(0); val != nil {
		indicator = val.(models.TypingIndicator)
	}
	return indicator, args.Error(1)
}

func (m *TypingRepositoryMock) StopTyping(ctx context.Context, channelID int, userID int) error {
	args := m.Called(ctx, channelID, userID)
	return args.Error(0)
}

func (m *TypingRepositoryMock) GetTypingUsers(ctx context.Context, channelID int) ([]models.TypingIndicator, error) {
	args := m.Called(ctx, channelID)
	var indicators []models.TypingIndicator
	if val := args.Get(0); val != nil {
		indicators = val.([]models.TypingIndicator)
	}
	return indicators, args.Error(1)
}

type SearchRepositoryMock struct {
	mock.Mock
}

func (m *SearchRepositoryMock) SearchMessages(ctx context.Context, userID int, query string, channelIDs []int, limit int, offset int) ([]models.MessageSearchResult, error) {
	args := m.Called(ctx, userID, query, channelIDs, limit, offset)
	var results []models.MessageSearchResult
	if val := args.Get(0); val != nil {
		results = val.([]models.MessageSearchResult)
	}
	return results, args.Error(1)
}

type BrokerPublisherMock struct {
	mock.Mock
}

func (m *BrokerPublisherMock) PublishChannelEvent(ctx context.Context, event models.ChannelEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *BrokerPublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type ObjectStoreMock struct {
	mock.Mock
}

func (m *ObjectStoreMock) Upload(ctx context.Context, filename string, contentType string, size int64, reader io.Reader, onProgress storage.ProgressFunc) (storage.UploadResult, error) {
	args := m.Called(ctx, filename, contentType, size, reader, onProgress)
	var result storage.UploadResult
	if val := args.Get(0); val != nil {
		result = val.(storage.UploadResult)
	}
	return result, args.Error(1)
}

var _ repositories.ChannelRepository = (*ChannelRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.PresenceRepository = (*PresenceRepositoryMock)(nil)
var _ repositories.TypingRepository = (*TypingRepositoryMock)(nil)
var _ repositories.SearchRepository = (*SearchRepositoryMock)(nil)
var _ broker.Publisher = (*BrokerPublisherMock)(nil)
var _ storage.ObjectStore = (*ObjectStoreMock)(nil)
