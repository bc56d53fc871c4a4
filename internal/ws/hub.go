package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"team-chat-service/internal/models"
	"team-chat-service/internal/observability"
)

// Hub maintains the local websocket subscribers of each channel.
type Hub struct {
	rooms    map[int]map[*websocket.Conn]bool
	connInfo map[int]map[*websocket.Conn]ConnInfo
	mu       sync.RWMutex
	onEmpty  func(channelID int)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[int]map[*websocket.Conn]bool),
		connInfo: make(map[int]map[*websocket.Conn]ConnInfo),
	}
}

// SetEmptyCallback registers a hook fired when a channel loses its last
// local subscriber. Used to tear down per-channel ephemeral state.
func (h *Hub) SetEmptyCallback(fn func(channelID int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEmpty = fn
}

// AddClient registers a websocket connection to a channel.
func (h *Hub) AddClient(channelID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[channelID]; !ok {
		h.rooms[channelID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[channelID][conn] = true
	if _, ok := h.connInfo[channelID]; !ok {
		h.connInfo[channelID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[channelID][conn] = info
}

// RemoveClient removes a channel websocket connection.
func (h *Hub) RemoveClient(channelID int, conn *websocket.Conn) {
	h.mu.Lock()
	var emptied bool
	if conns, ok := h.rooms[channelID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, channelID)
			emptied = true
		}
	}
	if infos, ok := h.connInfo[channelID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, channelID)
		}
	}
	onEmpty := h.onEmpty
	h.mu.Unlock()

	if emptied && onEmpty != nil {
		onEmpty(channelID)
	}
}

// SubscriberCount reports the number of local connections in a channel.
func (h *Hub) SubscriberCount(channelID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[channelID])
}

// BroadcastEvent sends an event to every local subscriber of the channel.
// Failed connections are closed and dropped.
func (h *Hub) BroadcastEvent(channelID int, event models.ChannelEvent) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[channelID]))
	for conn := range h.rooms[channelID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("websocket marshal error: %v", err)
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.publishWSError(channelID, conn, err)
			h.RemoveClient(channelID, conn)
		}
	}
}

func (h *Hub) publishWSError(channelID int, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(channelID, conn)
	if !ok {
		return
	}

	payload := observability.WSEventPayload{
		ChannelID:  channelID,
		Event:      "ws_error",
		ConnID:     info.ConnID,
		UserID:     info.UserID,
		IP:         info.IP,
		DurationMS: time.Since(info.ConnectedAt).Milliseconds(),
		Reason:     err.Error(),
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.channels", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("channel", "ws_error")
}

func (h *Hub) getConnInfo(channelID int, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.connInfo[channelID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}
