package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testAuth(token string) (string, string, error) {
	if token == "" || token == "bad" {
		return "", "", errors.New("invalid token")
	}
	return token, "rider", nil
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var ack map[string]string
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if ack["status"] != "authenticated" || ack["user_id"] != token {
		t.Fatalf("unexpected ack: %v", ack)
	}
	return conn
}

func TestHub_DeliverToConnectedUser(t *testing.T) {
	hub := NewHub(testAuth)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv, "user-1")
	defer conn.Close()

	if !hub.Connected("user-1") {
		t.Fatal("expected user-1 to be connected")
	}

	payload := map[string]string{"id": "ride-1"}
	if err := hub.Deliver(context.Background(), "user-1", "ride-confirmed", payload); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "ride-confirmed" || msg.Data["id"] != "ride-1" {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestHub_DeliverToUnknownAddress(t *testing.T) {
	hub := NewHub(testAuth)

	err := hub.Deliver(context.Background(), "nobody", "new-ride", nil)
	if !errors.Is(err, ErrAddressNotConnected) {
		t.Errorf("expected ErrAddressNotConnected, got %v", err)
	}
}

func TestHub_RejectsInvalidToken(t *testing.T) {
	hub := NewHub(testAuth)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=bad"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected connection to be closed")
	}
	if hub.Connected("bad") {
		t.Error("rejected client must not be registered")
	}
}
