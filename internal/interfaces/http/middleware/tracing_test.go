package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/erp/receipt/internal/infrastructure/telemetry"
)

func setupTestTracer(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })
	return tp, sr
}

func serverSpan(t *testing.T, sr *tracetest.SpanRecorder) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.SpanKind() == trace.SpanKindServer {
			return span
		}
	}
	require.FailNow(t, "server span not found")
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func newTracedRouter(t *testing.T, extra ...gin.HandlerFunc) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	tp, sr := setupTestTracer(t)
	cfg := DefaultTracingConfig()
	cfg.TracerProvider = tp

	router := gin.New()
	router.Use(RequestID())
	router.Use(TracingWithConfig(cfg))
	router.Use(extra...)
	router.Use(TracingAttributeInjector())
	router.Use(SpanErrorMarker())
	router.GET("/api/v1/jobs/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/api/v1/jobs/:id/document", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	router.POST("/imprimir-direto", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusBadGateway)
	})
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router, sr
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	router.GET("/x", func(c *gin.Context) {
		assert.False(t, trace.SpanFromContext(c.Request.Context()).SpanContext().IsValid())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracingWithConfig_ServerSpan(t *testing.T) {
	router, sr := newTracedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/42", nil)
	req.Header.Set(RequestIDHeader, "req-abc")
	router.ServeHTTP(httptest.NewRecorder(), req)

	span := serverSpan(t, sr)
	assert.Contains(t, span.Name(), "/api/v1/jobs/:id")

	requestID, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-abc", requestID.AsString())
	_, hasTerminal := spanAttr(span, telemetry.AttrTerminalID)
	assert.False(t, hasTerminal)
}

func TestTracingWithConfig_TerminalAttribute(t *testing.T) {
	router, sr := newTracedRouter(t, func(c *gin.Context) {
		c.Set(JWTTerminalIDKey, "caixa-07")
		c.Next()
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/jobs/1", nil))

	terminal, ok := spanAttr(serverSpan(t, sr), telemetry.AttrTerminalID)
	require.True(t, ok)
	assert.Equal(t, "caixa-07", terminal.AsString())
}

func TestTracingWithConfig_SkipPaths(t *testing.T) {
	router, sr := newTracedRouter(t)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, sr.Ended())
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus codes.Code
		wantHTTP   int64
	}{
		{"success", http.MethodGet, "/api/v1/jobs/1", codes.Unset, 0},
		{"client error", http.MethodGet, "/api/v1/jobs/1/document", codes.Unset, http.StatusNotFound},
		{"server error", http.MethodPost, "/imprimir-direto", codes.Error, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, sr := newTracedRouter(t)
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			span := serverSpan(t, sr)
			if tt.wantStatus == codes.Error {
				assert.Equal(t, codes.Error, span.Status().Code)
			} else {
				assert.NotEqual(t, codes.Error, span.Status().Code)
			}
			if tt.wantHTTP != 0 {
				status, ok := spanAttr(span, telemetry.AttrHTTPStatusCode)
				require.True(t, ok)
				assert.Equal(t, tt.wantHTTP, status.AsInt64())
			}
		})
	}
}
