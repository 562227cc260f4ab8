package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dmchat/backend/internal/apperr"
)

// TokenCookie is the cookie carrying the session token on both the REST
// and the WebSocket handshake channel.
const TokenCookie = "token"

// Claims is the signed assertion of identity a session token carries.
type Claims struct {
	jwt.RegisteredClaims
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
}

// TokenService issues and verifies session tokens. Tokens are stateless:
// validity is purely a function of the signature and the expiry claim.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl}
}

// TTL returns the validity window tokens are issued with.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue mints a signed token for the given identity.
func (s *TokenService) Issue(userID uint, username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:   userID,
		Username: username,
	})
	return token.SignedString(s.secret)
}

// Verify checks signature and expiry and returns the embedded identity.
// It is the single verifier for every channel: the REST middleware and the
// WebSocket handshake both go through here.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ErrTokenExpired
		}
		return nil, apperr.ErrInvalidToken
	}
	if !token.Valid {
		return nil, apperr.ErrInvalidToken
	}

	return claims, nil
}
