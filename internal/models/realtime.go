package models

// Realtime event types exchanged over the WebSocket.
const (
	EventJoin    = "join"    // client → server
	EventSend    = "send"    // client → server
	EventReady   = "ready"   // server → client
	EventJoined  = "joined"  // server → client
	EventError   = "error"   // server → client
	EventMessage = "message" // server → room
)

// ClientEvent is a frame received from a connected client.
type ClientEvent struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversationId"`
	Body           string `json:"body"`
}

// ServerEvent is the envelope written to clients.
type ServerEvent struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Identity names the authenticated user behind a connection.
type Identity struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
}

// Payloads for the server-side events.
type ReadyData struct {
	OK bool     `json:"ok"`
	Me Identity `json:"me"`
}

type JoinedData struct {
	ConversationID uint `json:"conversationId"`
}

type ErrorData struct {
	Message string `json:"message"`
}
