package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dmchat/backend/internal/apperr"
	"dmchat/backend/internal/auth"
	"dmchat/backend/internal/models"
)

const claimsKey = "claims"

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new account.
func (h *Handler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.Users.Register(req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

// Login verifies credentials and sets the session token cookie.
func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.Users.Authenticate(req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	token, err := h.Tokens.Issue(user.ID, user.Username)
	if err != nil {
		fail(c, apperr.Wrap(apperr.CodeInternal, "failed to issue token", err))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.TokenCookie, token, int(h.Tokens.TTL().Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "logged in"})
}

// Logout clears the session cookie. Tokens are stateless, so nothing is
// revoked server-side; the cookie removal is the logout.
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.TokenCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RequireAuth verifies the session cookie and stores the claims on the
// request context. It uses the same verifier as the WebSocket handshake.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
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

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// identity extracts the verified identity stored by RequireAuth.
func identity(c *gin.Context) models.Identity {
	claims := c.MustGet(claimsKey).(*auth.Claims)
	return models.Identity{UserID: claims.UserID, Username: claims.Username}
}

// Me reports the identity behind the session token.
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": identity(c)})
}
