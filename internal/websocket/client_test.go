// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/omnistream/internal/models"
)

// serveHub upgrades every request and registers the connection with hub,
// the same way the API websocket endpoint does.
func serveHub(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		client := NewClient(hub, conn)
		hub.Register <- client
		client.Start()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialWebSocket(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]json.RawMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return msg
}

func messageType(t *testing.T, msg map[string]json.RawMessage) string {
	t.Helper()
	var typ string
	if err := json.Unmarshal(msg["type"], &typ); err != nil {
		t.Fatalf("decode type: %v", err)
	}
	return typ
}

func TestNewClient(t *testing.T) {
	hub := NewHub()
	a, b := NewClient(hub, nil), NewClient(hub, nil)
	if b.ID() <= a.ID() {
		t.Errorf("client IDs not increasing: %d then %d", a.ID(), b.ID())
	}
	if cap(a.send) != sendBuffer {
		t.Errorf("send capacity = %d, want %d", cap(a.send), sendBuffer)
	}
}

func TestClient_ReceivesNotification(t *testing.T) {
	hub := setupHub(t)
	conn := dialWebSocket(t, serveHub(t, hub))
	waitFor(t, "registration", func() bool { return hub.GetClientCount() == 1 })

	hub.BroadcastJSON(MessageTypeNotification, models.Notification{
		ID: "offline-jf", Kind: models.AlertOffline, Severity: models.SeverityError,
		BackendID: "jf", BackendName: "Jellyfin", Message: "Server is offline",
	})

	msg := readMessage(t, conn)
	if got := messageType(t, msg); got != MessageTypeNotification {
		t.Fatalf("type = %q, want %q", got, MessageTypeNotification)
	}
	var n models.Notification
	if err := json.Unmarshal(msg["data"], &n); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if n.ID != "offline-jf" || n.Severity != models.SeverityError {
		t.Errorf("notification = %+v", n)
	}
}

func TestClient_PingPong(t *testing.T) {
	hub := setupHub(t)
	conn := dialWebSocket(t, serveHub(t, hub))

	// Malformed input is ignored rather than closing the connection.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if got := messageType(t, readMessage(t, conn)); got != MessageTypePong {
		t.Errorf("type = %q, want pong", got)
	}
}

func TestClient_DisconnectUnregisters(t *testing.T) {
	hub := setupHub(t)
	conn := dialWebSocket(t, serveHub(t, hub))
	waitFor(t, "registration", func() bool { return hub.GetClientCount() == 1 })

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	_ = conn.Close()
	waitFor(t, "unregistration", func() bool { return hub.GetClientCount() == 0 })
}

func TestClient_OversizedMessageClosesConnection(t *testing.T) {
	hub := setupHub(t)
	conn := dialWebSocket(t, serveHub(t, hub))
	waitFor(t, "registration", func() bool { return hub.GetClientCount() == 1 })

	big := `{"type":"ping","data":"` + strings.Repeat("x", maxMessageSize) + `"}`
	_ = conn.WriteMessage(websocket.TextMessage, []byte(big))
	waitFor(t, "unregistration", func() bool { return hub.GetClientCount() == 0 })
}
