package models

// Channel event types carried over the fan-out transport and websockets.
const (
	EventMessageCreated  = "message:created"
	EventMessageUpdated  = "message:updated"
	EventMessageDeleted  = "message:deleted"
	EventReactionAdded   = "reaction:added"
	EventReactionRemoved = "reaction:removed"
	EventTypingStart     = "typing:start"
	EventTypingStop      = "typing:stop"
	EventPresenceChanged = "presence:changed"
)

// ChannelEvent is the envelope broadcast to channel subscribers.
type ChannelEvent struct {
	Type      string   `json:"type"`
	ChannelID int      `json:"channel_id"`
	UserID    int      `json:"user_id,omitempty"`
	Message   *Message `json:"message,omitempty"`
	MessageID int      `json:"message_id,omitempty"`
	Emoji     string   `json:"emoji,omitempty"`
	Status    string   `json:"status,omitempty"`
}
