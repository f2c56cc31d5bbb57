package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLoggedRouter(logger *zap.Logger, skip ...string) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(GinRequestIDKey, "req-abc")
		c.Set(GinTerminalIDKey, "caixa-2")
		c.Next()
	})
	r.Use(GinMiddleware(logger, skip...))
	return r
}

func TestGinMiddleware_Levels(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel zapcore.Level
	}{
		{name: "ok", status: http.StatusOK, wantLevel: zapcore.InfoLevel},
		{name: "client error", status: http.StatusBadRequest, wantLevel: zapcore.WarnLevel},
		{name: "server error", status: http.StatusInternalServerError, wantLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.InfoLevel)
			r := newLoggedRouter(zap.New(core))
			r.POST("/imprimir-direto", func(c *gin.Context) { c.Status(tt.status) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/imprimir-direto?x=1", nil)
			r.ServeHTTP(w, req)

			require.Len(t, recorded.All(), 1)
			entry := recorded.All()[0]
			assert.Equal(t, tt.wantLevel, entry.Level)
			fields := entry.ContextMap()
			assert.Equal(t, "req-abc", fields["request_id"])
			assert.Equal(t, "caixa-2", fields["terminal_id"])
			assert.Equal(t, "/imprimir-direto", fields["path"])
			assert.Equal(t, "x=1", fields["query"])
			assert.Equal(t, int64(tt.status), fields["status"])
		})
	}
}

func TestGinMiddleware_SkipsPaths(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	r := newLoggedRouter(zap.New(core), "/health")
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, recorded.All())
}

func TestGinMiddleware_PropagatesRequestContext(t *testing.T) {
	r := newLoggedRouter(zap.NewNop())
	var gotRequestID string
	var gotLogger *zap.Logger
	r.GET("/impressoras", func(c *gin.Context) {
		gotRequestID = GetRequestID(c.Request.Context())
		gotLogger = GetGinLogger(c)
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/impressoras", nil))
	assert.Equal(t, "req-abc", gotRequestID)
	assert.NotNil(t, gotLogger)
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/panic", func(c *gin.Context) { panic("printer on fire") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Erro interno do servidor"}`, w.Body.String())
	require.Len(t, recorded.All(), 1)
	assert.Equal(t, "Panic recovered", recorded.All()[0].Message)
}

func TestGetGinLogger_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}
