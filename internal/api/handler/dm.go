package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dmchat/backend/internal/apperr"
	"dmchat/backend/internal/models"
)

type conversationRequest struct {
	PartnerID uint `json:"partnerId"`
}

// ListUsers returns the directory: everyone except the caller, ordered by
// username.
func (h *Handler) ListUsers(c *gin.Context) {
	me := identity(c)

	users, err := h.Users.ListOthers(me.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	if users == nil {
		users = []models.PublicUser{}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "users": users})
}

// CreateConversation opens (or returns) the single conversation between the
// caller and the requested partner.
func (h *Handler) CreateConversation(c *gin.Context) {
	var req conversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	me := identity(c)
	conv, err := h.Chat.GetOrCreateConversation(me.UserID, req.PartnerID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "conversationId": conv.ID})
}

// GetMessages returns the newest 50 messages of a conversation in ascending
// order, provided the caller is a participant.
func (h *Handler) GetMessages(c *gin.Context) {
	conversationID, err := strconv.ParseUint(c.Query("conversationId"), 10, 64)
	if err != nil || conversationID == 0 {
		fail(c, apperr.ErrConversationIDRequired)
		return
	}

	me := identity(c)
	messages, err := h.Chat.RecentHistory(uint(conversationID), me.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	if messages == nil {
		messages = []models.MessageView{}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "messages": messages})
}
