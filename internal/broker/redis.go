package broker

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"github.com/redis/go-redis/v9"

	"team-chat-service/internal/models"
	"team-chat-service/internal/observability"
)

const channelTopicPattern = "channel:*"

// Publisher fans out channel events to all subscribed service instances.
// Delivery is at-most-once per connected subscriber; there is no replay log.
type Publisher interface {
	PublishChannelEvent(ctx context.Context, event models.ChannelEvent) error
	Close() error
}

// NewPublisher builds a Redis publisher, or a noop publisher when Redis is
// unreachable. Losing the broker degrades real-time delivery but must not
// take the service down; durable fallbacks cover the gap.
func NewPublisher(redisURL string) Publisher {
	client, err := connect(redisURL)
	if err != nil {
		log.Printf("broker disabled, using noop: %v", err)
		return noopPublisher{reason: err.Error()}
	}
	log.Printf("broker connected url=%s", redisURL)
	return &redisPublisher{client: client}
}

type redisPublisher struct {
	client *redis.Client
}

func (p *redisPublisher) PublishChannelEvent(ctx context.Context, event models.ChannelEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = p.client.Publish(ctx, topicForChannel(event.ChannelID), payload).Err()
	if err != nil {
		log.Printf("broker publish failed type=%s channel=%d: %v", event.Type, event.ChannelID, err)
		observability.IncBrokerPublishError()
		return err
	}
	observability.IncBrokerPublish(event.Type)
	return nil
}

func (p *redisPublisher) Close() error {
	return p.client.Close()
}

type noopPublisher struct {
	reason string
}

func (noopPublisher) PublishChannelEvent(ctx context.Context, event models.ChannelEvent) error {
	log.Printf("broker noop publish type=%s channel=%d", event.Type, event.ChannelID)
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

// NewLoopback builds a publisher that dispatches events to the local
// process only. Used as the fallback fan-out when no broker is configured.
func NewLoopback(handle func(models.ChannelEvent)) Publisher {
	return loopbackPublisher{handle: handle}
}

type loopbackPublisher struct {
	handle func(models.ChannelEvent)
}

func (p loopbackPublisher) PublishChannelEvent(ctx context.Context, event models.ChannelEvent) error {
	p.handle(event)
	observability.IncBrokerPublish(event.Type)
	return nil
}

func (loopbackPublisher) Close() error {
	return nil
}

// Subscriber consumes channel events published by any service instance.
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber connects a dedicated subscriber client, or nil when Redis is
// unreachable; callers treat a nil subscriber as "local-only fan-out".
func NewSubscriber(redisURL string) *Subscriber {
	client, err := connect(redisURL)
	if err != nil {
		log.Printf("broker subscriber disabled: %v", err)
		return nil
	}
	return &Subscriber{client: client}
}

// Run pattern-subscribes to all channel topics and dispatches decoded events
// until the context is cancelled.
func (s *Subscriber) Run(ctx context.Context, handle func(models.ChannelEvent)) {
	pubsub := s.client.PSubscribe(ctx, channelTopicPattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		log.Printf("broker subscribe failed: %v", err)
		return
	}
	log.Printf("broker subscribed pattern=%s", channelTopicPattern)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event models.ChannelEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("broker decode failed topic=%s: %v", msg.Channel, err)
				continue
			}
			handle(event)
		}
	}
}

// Close releases the subscriber connection.
func (s *Subscriber) Close() error {
	return s.client.Close()
}

func connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func topicForChannel(channelID int) string {
	return "channel:" + strconv.Itoa(channelID)
}
