package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

var errSkipped = errors.New("event_ignored")

func newLoggedEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		ErrorClassifier: func(err error) (string, string) {
			if errors.Is(err, errSkipped) {
				return "ignored", err.Error()
			}
			return "client", err.Error()
		},
	}))
	r.POST("/webhooks/stripe", func(c *gin.Context) {
		if c.Query("reject") != "" {
			_ = c.Error(errors.New("invalid_signature"))
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		_ = c.Error(errSkipped)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	})
	return r
}

func TestIgnoredWebhookIsLoggedAtDebug(t *testing.T) {
	logs := observe(t)
	r := newLoggedEngine()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", nil))
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.DebugLevel, entry.Level)
	assert.Equal(t, "ignored", entry.ContextMap()["error_type"])
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestRejectedWebhookIsLoggedAtInfo(t *testing.T) {
	logs := observe(t)
	r := newLoggedEngine()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/stripe?reject=1", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.Equal(t, "client", entry.ContextMap()["error_type"])
}
