package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader   = "Idempotency-Key"
	idempotencyTTL      = 24 * time.Hour
	idempotencyClaimTTL = 30 * time.Second
)

// replayRecord is what Redis holds under an idempotency key. While the first
// request is still running only Fingerprint is set and Pending is true.
type replayRecord struct {
	Fingerprint string `json:"fingerprint"`
	Pending     bool   `json:"pending,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// bodyRecorder tees the handler's output so it can be stored for replay.
type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware makes retried ride commands safe. A repeated
// Idempotency-Key from the same caller on the same route gets the first
// response back instead of running the command twice; reusing a key with a
// different body is rejected. Keys are scoped by CallerID, so it must run
// after AuthMiddleware. A nil client disables it.
func IdempotencyMiddleware(client *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if client == nil || key == "" || !isCommand(c.Request.Method) {
			c.Next()
			return
		}

		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(payload))

		ctx := c.Request.Context()
		redisKey := "idempotency:" + CallerID(c) + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
		fingerprint := requestFingerprint(payload)

		claimed, err := claimKey(ctx, client, redisKey, fingerprint)
		if err != nil {
			// Redis unavailable: serve the request without replay protection.
			c.Next()
			return
		}
		if !claimed {
			replay(c, client, redisKey, fingerprint)
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status >= http.StatusInternalServerError {
			// Let the client retry a failed command under the same key.
			_ = client.Del(ctx, redisKey).Err()
			return
		}
		_ = storeRecord(ctx, client, redisKey, &replayRecord{
			Fingerprint: fingerprint,
			Status:      status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.buf.Bytes(),
		}, idempotencyTTL)
	}
}

func isCommand(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

func requestFingerprint(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// claimKey marks the key as in flight. It returns false when a record
// already exists.
func claimKey(ctx context.Context, client *redis.Client, key, fingerprint string) (bool, error) {
	data, err := json.Marshal(replayRecord{Fingerprint: fingerprint, Pending: true})
	if err != nil {
		return false, err
	}
	return client.SetNX(ctx, key, data, idempotencyClaimTTL).Result()
}

func replay(c *gin.Context, client *redis.Client, key, fingerprint string) {
	data, err := client.Get(c.Request.Context(), key).Bytes()
	if err == redis.Nil {
		// The claim expired between SETNX and GET.
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request with this Idempotency-Key is in progress"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "idempotency store unavailable"})
		return
	}

	var stored replayRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "corrupt idempotency record"})
		return
	}

	switch {
	case stored.Fingerprint != fingerprint:
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "Idempotency-Key was already used with a different request"})
	case stored.Pending:
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request with this Idempotency-Key is in progress"})
	default:
		contentType := stored.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		c.Header("Idempotent-Replayed", "true")
		c.Data(stored.Status, contentType, stored.Body)
		c.Abort()
	}
}

func storeRecord(ctx context.Context, client *redis.Client, key string, record *replayRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, ttl).Err()
}
