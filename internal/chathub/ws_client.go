package chathub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"dmchat/backend/internal/apperr"
	"dmchat/backend/internal/models"
	"dmchat/backend/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Read limit sized for a 1000-character body in any encoding plus the
	// JSON envelope.
	maxMessageSize = 8192
)

// WebSocketClient implements Client over a gorilla websocket connection.
// The authenticated identity is fixed at handshake time; join and send are
// authorized against durable storage on every event, never against the
// in-memory room id.
type WebSocketClient struct {
	id       string
	identity models.Identity
	conn     *websocket.Conn
	hub      *Manager
	chat     *service.ChatService
	send     chan models.ServerEvent
	done     chan struct{}
	once     sync.Once

	mu     sync.RWMutex
	roomID uint
}

func NewWebSocketClient(hub *Manager, chat *service.ChatService, conn *websocket.Conn, identity models.Identity) *WebSocketClient {
	return &WebSocketClient{
		id:       uuid.New().String(),
		identity: identity,
		conn:     conn,
		hub:      hub,
		chat:     chat,
		send:     make(chan models.ServerEvent, 256),
		done:     make(chan struct{}),
	}
}

func (c *WebSocketClient) GetID() string       { return c.id }
func (c *WebSocketClient) GetUserID() uint     { return c.identity.UserID }
func (c *WebSocketClient) GetUsername() string { return c.identity.Username }

func (c *WebSocketClient) GetRoomID() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

func (c *WebSocketClient) SetRoomID(id uint) {
	c.mu.Lock()
	c.roomID = id
	c.mu.Unlock()
}

func (c *WebSocketClient) GetSendChannel() chan<- models.ServerEvent { return c.send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close stops the write pump. Idempotent: both the hub and the read pump may
// end up here.
func (c *WebSocketClient) Close() {
	c.once.Do(func() { close(c.done) })
}

// Deliver queues an event for this connection only (ready, joined, error).
func (c *WebSocketClient) Deliver(ev models.ServerEvent) {
	select {
	case c.send <- ev:
	case <-c.done:
	}
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.hub.UnregisterCh <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading from client %s: %v", c.id, err)
			}
			break
		}

		var ev models.ClientEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			log.Printf("error decoding event from client %s: %v", c.id, err)
			continue
		}

		switch ev.Type {
		case models.EventJoin:
			c.handleJoin(ev.ConversationID)
		case models.EventSend:
			c.handleSend(ev.ConversationID, ev.Body)
		}
	}
}

// handleJoin validates the user's participancy against storage, then moves
// this connection into the room. A zero conversation id is a designed no-op.
func (c *WebSocketClient) handleJoin(conversationID uint) {
	if conversationID == 0 {
		return
	}

	if _, err := c.chat.Authorize(conversationID, c.identity.UserID); err != nil {
		c.deliverError(err)
		return
	}

	c.SetRoomID(conversationID)
	c.Deliver(models.ServerEvent{
		Type: models.EventJoined,
		Data: models.JoinedData{ConversationID: conversationID},
	})
}

// handleSend persists the message and hands it to the hub for fan-out.
// Participancy is re-validated on every send; a prior join is never trusted.
// The sender gets its copy through the same broadcast, not a separate echo.
func (c *WebSocketClient) handleSend(conversationID uint, body string) {
	body = service.NormalizeBody(body)
	if conversationID == 0 || body == "" {
		return
	}

	view, err := c.chat.SendMessage(conversationID, c.identity.UserID, c.identity.Username, body)
	if err != nil {
		c.deliverError(err)
		return
	}

	c.hub.BroadcastCh <- Broadcast{
		ConversationID: conversationID,
		Event:          models.ServerEvent{Type: models.EventMessage, Data: view},
	}
}

// deliverError reports a failure to this connection only. Internal detail is
// logged and masked; the event never reaches other room members.
func (c *WebSocketClient) deliverError(err error) {
	if apperr.CodeOf(err) == apperr.CodeInternal || apperr.CodeOf(err) == apperr.CodeUnknown {
		log.Printf("ERROR: client %s (user %d): %v", c.id, c.identity.UserID, err)
	}
	c.Deliver(models.ServerEvent{
		Type: models.EventError,
		Data: models.ErrorData{Message: apperr.MessageOf(err)},
	})
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case ev := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			data, err := json.Marshal(ev)
			if err != nil {
				log.Printf("error encoding event for client %s: %v", c.id, err)
				continue
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(data)

			// Flush whatever else is already queued in one frame batch.
			n := len(c.send)
			for i := 0; i < n; i++ {
				next := <-c.send
				extra, err := json.Marshal(next)
				if err != nil {
					continue
				}
				w.Write([]byte{'\n'})
				w.Write(extra)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
