package ws

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"team-chat-service/internal/auth"
	"team-chat-service/internal/observability"
	"team-chat-service/internal/repositories"
)

// ChannelWSHandler handles channel websocket subscriptions.
type ChannelWSHandler struct {
	hub         *Hub
	channelRepo repositories.ChannelRepository
	validator   auth.TokenValidator
}

// NewChannelWSHandler constructs a ChannelWSHandler.
func NewChannelWSHandler(hub *Hub, channelRepo repositories.ChannelRepository, validator auth.TokenValidator) *ChannelWSHandler {
	return &ChannelWSHandler{hub: hub, channelRepo: channelRepo, validator: validator}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates, upgrades the connection and registers the client.
// The read loop only detects closure; all client actions arrive over HTTP.
func (h *ChannelWSHandler) Handle(c *gin.Context) {
	channelID, err := strconv.Atoi(c.Param("channel_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	ctx, span := otel.Tracer("team-chat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := auth.ExtractTokenFromRequest(c.Request)
	userID, err := h.validator.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	member, err := h.channelRepo.IsParticipant(c.Request.Context(), channelID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for channel"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      uuid.NewString(),
		UserID:      userID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(channelID, conn, info)

	observability.IncWSActive("channel")
	observability.IncWSEvent("channel", "ws_connect")
	headers := observability.BuildHeaders(requestID, traceID)
	_ = observability.PublishEvent(ctx, "ws_events.channels", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload: observability.WSEventPayload{
			ChannelID: channelID,
			Event:     "ws_connect",
			ConnID:    info.ConnID,
			UserID:    info.UserID,
			IP:        info.IP,
		},
	}, headers)

	// Keep connection alive and clean up on close.
	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveClient(channelID, conn)
			observability.DecWSActive("channel")
			observability.IncWSEvent("channel", "ws_disconnect")
			_ = observability.PublishEvent(ctx, "ws_events.channels", observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload: observability.WSEventPayload{
					ChannelID:  channelID,
					Event:      "ws_disconnect",
					ConnID:     info.ConnID,
					UserID:     info.UserID,
					IP:         info.IP,
					DurationMS: time.Since(info.ConnectedAt).Milliseconds(),
					Reason:     closeReason,
				},
			}, headers)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("channel", "ws_error")
				}
				return
			}
		}
	}()
}
