package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"healthloop/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	pendingMarker     = "pending"
)

type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response when a user repeats a request with
// the same Idempotency-Key. A concurrent duplicate gets 409. Server errors
// are not stored so the client may retry. Without Redis, or when Redis
// fails, requests pass through.
func Idempotency(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || rdb == nil {
			c.Next()
			return
		}
		if len(key) > 128 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "idempotency key too long"})
			return
		}

		userID, _ := UserID(c)
		rkey := "idem:" + strconv.FormatInt(userID, 10) + ":" + c.FullPath() + ":" + key
		ctx := c.Request.Context()

		fresh, err := rdb.SetNX(ctx, rkey, pendingMarker, ttl).Result()
		if err != nil {
			c.Header("X-Idempotency-Error", "redis-error")
			c.Next()
			return
		}
		if !fresh {
			replay(c, rdb, rkey)
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		storeCtx := context.WithoutCancel(ctx)
		status := rec.Status()
		body := rec.buf.Bytes()
		if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests || !json.Valid(body) {
			rdb.Del(storeCtx, rkey)
			return
		}

		payload, err := json.Marshal(storedResponse{Status: status, Body: body})
		if err != nil {
			rdb.Del(storeCtx, rkey)
			return
		}
		if err := rdb.Set(storeCtx, rkey, payload, ttl).Err(); err != nil {
			logger.WithContext(ctx).Warn("idempotency: store response", "error", err)
		}
	}
}

func replay(c *gin.Context, rdb *redis.Client, rkey string) {
	val, err := rdb.Get(c.Request.Context(), rkey).Result()
	if err != nil || val == pendingMarker {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "a request with this idempotency key is in progress"})
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(val), &stored); err != nil {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "a request with this idempotency key is in progress"})
		return
	}

	c.Header("Idempotent-Replayed", "true")
	c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
	c.Abort()
}
