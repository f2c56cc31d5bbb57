package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/receipt/internal/interfaces/http/dto"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestRateLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, window)
	rl.now = clock.Now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows burst up to limit", func(t *testing.T) {
		rl, _ := newTestRateLimiter(t, 5, time.Minute)
		for i := 0; i < 5; i++ {
			assert.True(t, rl.Allow("caixa-01"), "request %d", i+1)
		}
		assert.False(t, rl.Allow("caixa-01"))
	})

	t.Run("separate budgets per key", func(t *testing.T) {
		rl, _ := newTestRateLimiter(t, 2, time.Minute)
		assert.True(t, rl.Allow("a"))
		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))
		assert.True(t, rl.Allow("b"))
	})

	t.Run("refills over the window", func(t *testing.T) {
		rl, clock := newTestRateLimiter(t, 2, time.Minute)
		assert.True(t, rl.Allow("a"))
		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))

		clock.Advance(30 * time.Second)
		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))
	})

	t.Run("remaining", func(t *testing.T) {
		rl, _ := newTestRateLimiter(t, 5, time.Minute)
		assert.Equal(t, 5, rl.Remaining("new"))
		rl.Allow("new")
		rl.Allow("new")
		assert.Equal(t, 3, rl.Remaining("new"))
	})

	t.Run("cleanup drops idle keys", func(t *testing.T) {
		rl, clock := newTestRateLimiter(t, 5, time.Minute)
		rl.Allow("idle")
		clock.Advance(time.Minute)
		rl.Allow("active")
		clock.Advance(90 * time.Second)

		rl.cleanup()
		assert.Equal(t, 1, rl.Clients())
	})

	t.Run("concurrent access", func(t *testing.T) {
		rl, _ := newTestRateLimiter(t, 100, time.Minute)
		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if rl.Allow("shared") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 100, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newTestRateLimiter(t, 2, time.Minute)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-Terminal"); id != "" {
			c.Set(JWTTerminalIDKey, id)
		}
		c.Next()
	})
	router.Use(RateLimit(rl))
	router.POST("/imprimir-direto", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(terminal string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/imprimir-direto", nil)
		req.RemoteAddr = "10.0.0.5:4000"
		if terminal != "" {
			req.Header.Set("X-Test-Terminal", terminal)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := send("caixa-01")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send("caixa-01").Code)

	blocked := send("caixa-01")
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1", blocked.Header().Get("Retry-After"))
	assert.Equal(t, dto.ErrCodeRateLimited, decodeErrorCode(t, blocked.Body.Bytes()))

	// same IP, different terminal and anonymous callers have their own buckets
	assert.Equal(t, http.StatusOK, send("caixa-02").Code)
	assert.Equal(t, http.StatusOK, send("").Code)
}

func TestRateLimitByKey(t *testing.T) {
	rl, _ := newTestRateLimiter(t, 1, time.Minute)

	router := gin.New()
	router.Use(RateLimitByKey(rl, func(c *gin.Context) string {
		return c.Query("k")
	}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		key  string
		want int
	}{
		{"a", http.StatusOK},
		{"a", http.StatusTooManyRequests},
		{"b", http.StatusOK},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?k="+tt.key, nil))
		assert.Equal(t, tt.want, w.Code, tt.key)
	}
}
