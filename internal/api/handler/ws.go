package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"dmchat/backend/internal/auth"
	"dmchat/backend/internal/chathub"
	"dmchat/backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Tighten for production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket authenticates the handshake and upgrades the connection.
// The session token comes from the same cookie the REST layer reads, and is
// checked by the same verifier; a connection that fails here never completes
// setup and no events are processed for it.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	token, err := c.Cookie(auth.TokenCookie)
	if err != nil {
		abortUnauthenticated(c)
		return
	}

	claims, err := h.Tokens.Verify(token)
	if err != nil {
		abortUnauthenticated(c)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return
	}

	me := models.Identity{UserID: claims.UserID, Username: claims.Username}
	client := chathub.NewWebSocketClient(h.Hub, h.Chat, conn, me)

	h.Hub.RegisterCh <- client
	client.Deliver(models.ServerEvent{
		Type: models.EventReady,
		Data: models.ReadyData{OK: true, Me: me},
	})
	client.Run()
}
