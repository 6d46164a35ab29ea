package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIdempotencyMiddleware_NilClientPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	calls := 0
	router := gin.New()
	router.Use(IdempotencyMiddleware(nil))
	router.POST("/v1/rides", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"n": calls})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/rides", strings.NewReader(`{}`))
		req.Header.Set(idempotencyHeader, "same-key")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i, rec.Code)
		}
	}
	if calls != 2 {
		t.Errorf("expected handler to run twice without a store, ran %d times", calls)
	}
}

func TestIsCommand(t *testing.T) {
	cases := map[string]bool{
		http.MethodPost:   true,
		http.MethodPut:    true,
		http.MethodPatch:  true,
		http.MethodGet:    false,
		http.MethodDelete: false,
	}
	for method, want := range cases {
		if got := isCommand(method); got != want {
			t.Errorf("isCommand(%s) = %v, want %v", method, got, want)
		}
	}
}

func TestRequestFingerprint(t *testing.T) {
	a := requestFingerprint([]byte(`{"vehicle_type":"car"}`))
	b := requestFingerprint([]byte(`{"vehicle_type":"car"}`))
	c := requestFingerprint([]byte(`{"vehicle_type":"auto"}`))

	if a != b {
		t.Error("identical bodies should share a fingerprint")
	}
	if a == c {
		t.Error("different bodies should not share a fingerprint")
	}
	if len(a) != 64 {
		t.Errorf("expected hex sha256, got %d chars", len(a))
	}
}
