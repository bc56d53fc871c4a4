package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	routingKey string
	payload    any
	headers    map[string]string
	calls      int
	err        error
}

func (s *recordingSink) PublishJSON(_ context.Context, routingKey string, payload any, headers map[string]string) error {
	s.routingKey = routingKey
	s.payload = payload
	s.headers = headers
	s.calls++
	return s.err
}

func TestPublishEventWithoutSinkIsNoop(t *testing.T) {
	SetPublisher(nil)

	err := PublishEvent(context.Background(), "ws_events.channels", EventEnvelope{EventType: "ws"}, nil)

	assert.NoError(t, err)
}

func TestPublishEventForwardsToSink(t *testing.T) {
	sink := &recordingSink{}
	SetPublisher(sink)
	defer SetPublisher(nil)

	envelope := EventEnvelope{
		EventType: "ws",
		EventName: "ws_connect",
		Payload:   WSEventPayload{ChannelID: 3, UserID: 7, Event: "ws_connect"},
	}
	headers := BuildHeaders("req-1", "trace-1")

	err := PublishEvent(context.Background(), "ws_events.channels", envelope, headers)

	require.NoError(t, err)
	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, "ws_events.channels", sink.routingKey)
	assert.Equal(t, envelope, sink.payload)
	assert.Equal(t, "req-1", sink.headers["x-request-id"])
	assert.Equal(t, "trace-1", sink.headers["trace_id"])
}

func TestPublishEventReturnsSinkError(t *testing.T) {
	sink := &recordingSink{err: assert.AnError}
	SetPublisher(sink)
	defer SetPublisher(nil)

	err := PublishEvent(context.Background(), "ws_events.channels", EventEnvelope{EventType: "ws"}, nil)

	assert.ErrorIs(t, err, assert.AnError)
}

func TestToAMQPTableCopiesHeaders(t *testing.T) {
	table := toAMQPTable(map[string]string{"x-request-id": "req-9"})

	assert.Equal(t, "req-9", table["x-request-id"])
	assert.Len(t, table, 1)
}
