package broker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"team-chat-service/internal/models"
)

func TestLoopbackDispatchesLocally(t *testing.T) {
	var received []models.ChannelEvent
	publisher := NewLoopback(func(event models.ChannelEvent) {
		received = append(received, event)
	})
	defer publisher.Close()

	err := publisher.PublishChannelEvent(context.Background(), models.ChannelEvent{
		Type:      models.EventMessageCreated,
		ChannelID: 5,
		UserID:    1,
	})
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, models.EventMessageCreated, received[0].Type)
	assert.Equal(t, 5, received[0].ChannelID)
}

func TestTopicForChannel(t *testing.T) {
	assert.Equal(t, "channel:5", topicForChannel(5))
	assert.Equal(t, "channel:120", topicForChannel(120))
}

func TestNoopPublisherSwallowsEvents(t *testing.T) {
	publisher := noopPublisher{reason: "unreachable"}

	err := publisher.PublishChannelEvent(context.Background(), models.ChannelEvent{
		Type:      models.EventTypingStart,
		ChannelID: 9,
	})
	require.NoError(t, err)
	require.NoError(t, publisher.Close())
}
