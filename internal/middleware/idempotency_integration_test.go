//go:build integration

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Run with: TEST_REDIS_ADDR=localhost:6379 go test -tags integration ./internal/middleware/

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func sendCommand(router *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/rides", strings.NewReader(body))
	req.Header.Set(idempotencyHeader, key)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_ReplaysFirstResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var calls int32
	router := gin.New()
	router.Use(IdempotencyMiddleware(newTestRedis(t)))
	router.POST("/v1/rides", func(c *gin.Context) {
		n := atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusCreated, gin.H{"n": n})
	})

	key := uuid.NewString()
	first := sendCommand(router, key, `{"vehicle_type":"car"}`)
	second := sendCommand(router, key, `{"vehicle_type":"car"}`)

	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected 201 twice, got %d and %d", first.Code, second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("replay body %q differs from original %q", second.Body.String(), first.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("replayed response should carry Idempotent-Replayed")
	}
	if first.Header().Get("Idempotent-Replayed") != "" {
		t.Error("original response should not be marked as replayed")
	}
	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
}

func TestIdempotency_DifferentBodyRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var calls int32
	router := gin.New()
	router.Use(IdempotencyMiddleware(newTestRedis(t)))
	router.POST("/v1/rides", func(c *gin.Context) {
		atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusCreated, gin.H{})
	})

	key := uuid.NewString()
	sendCommand(router, key, `{"vehicle_type":"car"}`)
	rec := sendCommand(router, key, `{"vehicle_type":"auto"}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
}

func TestIdempotency_InFlightDuplicateConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	entered := make(chan struct{})
	release := make(chan struct{})
	router := gin.New()
	router.Use(IdempotencyMiddleware(newTestRedis(t)))
	router.POST("/v1/rides", func(c *gin.Context) {
		close(entered)
		<-release
		c.JSON(http.StatusCreated, gin.H{})
	})

	key := uuid.NewString()
	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- sendCommand(router, key, `{}`) }()
	<-entered

	dup := sendCommand(router, key, `{}`)
	close(release)
	first := <-done

	if dup.Code != http.StatusConflict {
		t.Errorf("duplicate while in flight: expected 409, got %d", dup.Code)
	}
	if first.Code != http.StatusCreated {
		t.Errorf("original: expected 201, got %d", first.Code)
	}
}

func TestIdempotency_ServerErrorReleasesKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var calls int32
	router := gin.New()
	router.Use(IdempotencyMiddleware(newTestRedis(t)))
	router.POST("/v1/rides", func(c *gin.Context) {
		if atomic.AddInt32(&calls, 1) == 1 {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{})
	})

	key := uuid.NewString()
	if rec := sendCommand(router, key, `{}`); rec.Code != http.StatusInternalServerError {
		t.Fatalf("first attempt: expected 500, got %d", rec.Code)
	}
	rec := sendCommand(router, key, `{}`)
	if rec.Code != http.StatusCreated {
		t.Errorf("retry after failure: expected 201, got %d", rec.Code)
	}
	if rec.Header().Get("Idempotent-Replayed") != "" {
		t.Error("retry after failure should run the handler, not replay")
	}
	if calls != 2 {
		t.Errorf("handler ran %d times, want 2", calls)
	}
}
