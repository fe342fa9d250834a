package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type clientInfo struct {
	start time.Time
	count int
}

// windowCounter is a fixed-window counter keyed by an arbitrary identity.
type windowCounter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	now     func() time.Time
	clients map[string]*clientInfo
}

func newWindowCounter(max int, window time.Duration) *windowCounter {
	return &windowCounter{
		max:     max,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*clientInfo),
	}
}

func (w *windowCounter) allow(ident string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	ci, ok := w.clients[ident]
	if !ok || now.Sub(ci.start) > w.window {
		w.clients[ident] = &clientInfo{start: now, count: 1}
		if len(w.clients) > 10000 {
			w.evictLocked(now)
		}
		return true
	}

	ci.count++
	return ci.count <= w.max
}

func (w *windowCounter) evictLocked(now time.Time) {
	for k, ci := range w.clients {
		if now.Sub(ci.start) > w.window {
			delete(w.clients, k)
		}
	}
}

// SimpleRateLimit blocks clients that send more than maxRequests per window
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	counter := newWindowCounter(maxRequests, window)

	return func(c *gin.Context) {
		if !counter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
