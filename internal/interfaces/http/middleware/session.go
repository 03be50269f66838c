package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Session context keys
const (
	SessionUserIDKey = "session_user_id"
	SessionEmailKey  = "session_email"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// SessionClaims are the JWT claims carried by a customer session token.
type SessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// OptionalSession parses a bearer token when present and stores the user id
// in the context. Checkout works for anonymous customers, so a missing or
// invalid token never rejects the request; it only means the created orders
// carry no user id.
func OptionalSession(secret string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" || !strings.HasPrefix(header, BearerPrefix) || secret == "" {
			c.Next()
			return
		}

		tokenStr := strings.TrimPrefix(header, BearerPrefix)
		claims := &SessionClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			logger.Debug("ignoring invalid session token", zap.Error(err))
			c.Next()
			return
		}

		if claims.Subject != "" {
			c.Set(SessionUserIDKey, claims.Subject)
		}
		if claims.Email != "" {
			c.Set(SessionEmailKey, claims.Email)
		}
		c.Next()
	}
}

// GetSessionUserID returns the authenticated user id from the context, or
// empty string for anonymous requests.
func GetSessionUserID(c *gin.Context) string {
	if id, exists := c.Get(SessionUserIDKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
