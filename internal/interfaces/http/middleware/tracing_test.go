package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestTracingWithConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("disabled tracing passes request through", func(t *testing.T) {
		router := gin.New()
		router.Use(TracingWithConfig(TracingConfig{Enabled: false}))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("enabled tracing does not alter the response", func(t *testing.T) {
		router := gin.New()
		router.Use(TracingWithConfig(TracingConfig{ServiceName: "test-service", Enabled: true}))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("default config uses service name", func(t *testing.T) {
		cfg := DefaultTracingConfig()
		assert.Equal(t, "menohub-backend", cfg.ServiceName)
		assert.True(t, cfg.Enabled)
	})
}

func TestSpanErrorMarker(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Without a recording span the marker must be a no-op for every status.
	for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusInternalServerError} {
		router := gin.New()
		router.Use(SpanErrorMarker())
		router.GET("/test", func(c *gin.Context) {
			c.Status(status)
		})

		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, status, w.Code)
	}
}

func TestGetRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("prefers context value over header", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/", nil)
		c.Request.Header.Set("X-Request-ID", "from-header")
		c.Set("request_id", "from-context")

		assert.Equal(t, "from-context", getRequestID(c))
	})

	t.Run("falls back to header", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/", nil)
		c.Request.Header.Set("X-Request-ID", "req-123")

		assert.Equal(t, "req-123", getRequestID(c))
	})

	t.Run("truncates oversized header values", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/", nil)
		c.Request.Header.Set("X-Request-ID", strings.Repeat("a", MaxRequestIDLength*2))

		assert.Len(t, getRequestID(c), MaxRequestIDLength)
	})
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("reads user id from session key", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(SessionUserIDKey, "user-42")

		assert.Equal(t, "user-42", getUserID(c))
	})

	t.Run("empty when no session", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())

		assert.Equal(t, "", getUserID(c))
	})
}
