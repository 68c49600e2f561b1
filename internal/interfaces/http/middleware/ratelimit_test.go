package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)

		for i := 0; i < 5; i++ {
			assert.True(t, limiter.Allow("10.0.0.1"), "request %d should be allowed", i+1)
		}
		assert.False(t, limiter.Allow("10.0.0.1"))
	})

	t.Run("keys are limited independently", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)

		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.False(t, limiter.Allow("10.0.0.1"))

		assert.True(t, limiter.Allow("10.0.0.2"))
		assert.True(t, limiter.Allow("10.0.0.2"))
	})

	t.Run("window reset refills tokens", func(t *testing.T) {
		limiter := NewRateLimiter(2, 50*time.Millisecond)

		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.False(t, limiter.Allow("10.0.0.1"))

		time.Sleep(60 * time.Millisecond)

		assert.True(t, limiter.Allow("10.0.0.1"))
	})

	t.Run("remaining tracks consumed tokens", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)

		assert.Equal(t, 5, limiter.Remaining("scanner-7"))

		limiter.Allow("scanner-7")
		limiter.Allow("scanner-7")

		assert.Equal(t, 3, limiter.Remaining("scanner-7"))
	})

	t.Run("concurrent access admits exactly limit requests", func(t *testing.T) {
		limiter := NewRateLimiter(100, time.Minute)
		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0

		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("shared-key") {
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

// newRateLimitedRouter wires the limiter in front of a list endpoint,
// optionally preceded by a fake auth layer reading X-User-ID.
func newRateLimitedRouter(limiter *RateLimiter, withAuth bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if withAuth {
		router.Use(func(c *gin.Context) {
			if userID := c.GetHeader("X-User-ID"); userID != "" {
				c.Set(JWTUserIDKey, userID)
			}
			c.Next()
		})
	}
	router.Use(RateLimit(limiter))
	router.GET("/outwork/moves", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func rateLimitedGet(router *gin.Engine, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/outwork/moves", nil)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("reports limit headers while under the limit", func(t *testing.T) {
		router := newRateLimitedRouter(NewRateLimiter(3, time.Minute), false)

		for i := 0; i < 3; i++ {
			w := rateLimitedGet(router, "")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		}
	})

	t.Run("returns 429 when limit exceeded", func(t *testing.T) {
		router := newRateLimitedRouter(NewRateLimiter(2, time.Minute), false)

		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, rateLimitedGet(router, "").Code)
		}

		w := rateLimitedGet(router, "")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
	})

	t.Run("authenticated callers are limited per user", func(t *testing.T) {
		router := newRateLimitedRouter(NewRateLimiter(1, time.Minute), true)

		assert.Equal(t, http.StatusOK, rateLimitedGet(router, "storekeeper-1").Code)
		assert.Equal(t, http.StatusTooManyRequests, rateLimitedGet(router, "storekeeper-1").Code)

		// A different user still has a fresh bucket.
		assert.Equal(t, http.StatusOK, rateLimitedGet(router, "supervisor-2").Code)
	})
}

func TestRateLimitByKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := NewRateLimiter(1, time.Minute)
	router := gin.New()
	router.Use(RateLimitByKey(limiter, func(c *gin.Context) string {
		return c.GetHeader("X-Partner-Code")
	}))
	router.GET("/outwork/moves", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	send := func(partner string) int {
		req := httptest.NewRequest(http.MethodGet, "/outwork/moves", nil)
		req.Header.Set("X-Partner-Code", partner)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("VND-FORGE-01"))
	assert.Equal(t, http.StatusTooManyRequests, send("VND-FORGE-01"))
	assert.Equal(t, http.StatusOK, send("VND-PLATE-02"))
}
