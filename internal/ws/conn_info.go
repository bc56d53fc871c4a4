package ws

import "time"

// ConnInfo carries identity and tracing context for one websocket connection.
type ConnInfo struct {
	ConnID      string
	UserID      int
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
