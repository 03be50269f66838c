package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionToken(t *testing.T, secret, subject, email string) string {
	claims := &SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func sessionTestRouter(secret string) (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(OptionalSession(secret, nil))

	var seenUserID string
	r.GET("/probe", func(c *gin.Context) {
		seenUserID = GetSessionUserID(c)
		c.Status(http.StatusOK)
	})
	return r, &seenUserID
}

func TestOptionalSession(t *testing.T) {
	const secret = "test-secret"

	t.Run("valid token populates user id", func(t *testing.T) {
		r, seen := sessionTestRouter(secret)

		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+sessionToken(t, secret, "user-1", "u@example.com"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-1", *seen)
	})

	t.Run("missing token is anonymous, not rejected", func(t *testing.T) {
		r, seen := sessionTestRouter(secret)

		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, *seen)
	})

	t.Run("invalid token is ignored", func(t *testing.T) {
		r, seen := sessionTestRouter(secret)

		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+sessionToken(t, "wrong-secret", "user-1", ""))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, *seen)
	})
}
