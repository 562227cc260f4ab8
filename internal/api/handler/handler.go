package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dmchat/backend/internal/apperr"
	"dmchat/backend/internal/auth"
	"dmchat/backend/internal/chathub"
	"dmchat/backend/internal/service"
)

// Handler carries the dependencies of every HTTP and WebSocket endpoint.
type Handler struct {
	Hub    *chathub.Manager
	Users  *service.UserService
	Chat   *service.ChatService
	Tokens *auth.TokenService
}

func NewHandler(hub *chathub.Manager, users *service.UserService, chat *service.ChatService, tokens *auth.TokenService) *Handler {
	return &Handler{Hub: hub, Users: users, Chat: chat, Tokens: tokens}
}

// Routes mounts every endpoint on the engine.
func (h *Handler) Routes(r *gin.Engine) {
	api := r.Group("/api")
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.POST("/logout", h.Logout)

	authed := api.Group("", h.RequireAuth())
	authed.GET("/me", h.Me)
	authed.GET("/users", h.ListUsers)
	authed.POST("/conversations", h.CreateConversation)
	authed.GET("/messages", h.GetMessages)

	r.GET("/ws", h.ServeWebSocket)
}

// fail answers with the stable {ok:false, message} shape. Internal detail
// never reaches the body; apperr masks it.
func fail(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"ok": false, "message": apperr.MessageOf(err)})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": message})
}

// abortUnauthenticated rejects a request that carries no valid session token.
func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(apperr.ErrNotLoggedIn),
		gin.H{"ok": false, "message": apperr.MessageOf(apperr.ErrNotLoggedIn)})
}
