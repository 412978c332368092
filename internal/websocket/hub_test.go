// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package websocket

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/omnistream/internal/metrics"
	"github.com/tomtom215/omnistream/internal/models"
	"github.com/tomtom215/omnistream/internal/poller"
)

// setupHub starts a hub that is stopped when the test ends.
func setupHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.RunWithContext(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func createTestClient(hub *Hub, buffer int) *Client {
	return &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, buffer)}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatal("client send channel closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func sampleStatuses() map[string]models.BackendStatus {
	return map[string]models.BackendStatus{
		"plex-home": {ID: "plex-home", Name: "Home Plex", Kind: models.KindPlex, Online: true},
		"jf":        {ID: "jf", Name: "Jellyfin", Kind: models.KindJellyfin, Online: false, Error: "HTTP 500: boom"},
	}
}

func TestHub_BroadcastStatusReachesEveryClient(t *testing.T) {
	hub := setupHub(t)
	a, b := createTestClient(hub, sendBuffer), createTestClient(hub, sendBuffer)
	hub.Register <- a
	hub.Register <- b

	meta := models.PollMeta{Timestamp: time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC), DurationMs: 42, Backends: 2}
	hub.BroadcastStatus("cycle-1", sampleStatuses(), meta)

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		if msg.Type != MessageTypeStatusUpdate {
			t.Fatalf("Type = %q, want %q", msg.Type, MessageTypeStatusUpdate)
		}
		if msg.ID == "" || msg.Timestamp.IsZero() {
			t.Errorf("message not stamped: id=%q timestamp=%v", msg.ID, msg.Timestamp)
		}
		data, ok := msg.Data.(StatusUpdateData)
		if !ok {
			t.Fatalf("Data = %T, want StatusUpdateData", msg.Data)
		}
		if data.CycleID != "cycle-1" || len(data.Statuses) != 2 || data.Meta.DurationMs != 42 {
			t.Errorf("unexpected payload %+v", data)
		}
	}
}

func TestHub_ClientCountMetric(t *testing.T) {
	hub := setupHub(t)
	c := createTestClient(hub, sendBuffer)
	hub.Register <- c
	waitFor(t, "registration", func() bool { return hub.GetClientCount() == 1 })
	if got := testutil.ToFloat64(metrics.WebSocketClients); got != 1 {
		t.Errorf("websocket clients gauge = %v, want 1", got)
	}

	hub.Unregister <- c
	waitFor(t, "unregistration", func() bool { return hub.GetClientCount() == 0 })
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed after unregister")
	}
	if got := testutil.ToFloat64(metrics.WebSocketClients); got != 0 {
		t.Errorf("websocket clients gauge = %v, want 0", got)
	}
}

func TestHub_UnregisterUnknownClient(t *testing.T) {
	hub := setupHub(t)
	hub.Unregister <- createTestClient(hub, 1)
	if hub.GetClientCount() != 0 {
		t.Errorf("GetClientCount() = %d, want 0", hub.GetClientCount())
	}
}

func TestHub_SlowClientIsDisconnected(t *testing.T) {
	hub := setupHub(t)
	slow := createTestClient(hub, 1)
	fast := createTestClient(hub, sendBuffer)
	hub.Register <- slow
	hub.Register <- fast

	hub.BroadcastJSON("first", 1)
	hub.BroadcastJSON("second", 2)

	receive(t, fast)
	receive(t, fast)
	waitFor(t, "slow client removal", func() bool { return hub.GetClientCount() == 1 })

	if msg := <-slow.send; msg.Type != "first" {
		t.Errorf("slow client first message = %q, want first", msg.Type)
	}
	if _, ok := <-slow.send; ok {
		t.Error("slow client channel should be closed")
	}
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	hub := NewHub() // not running: nothing drains the queue
	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer+10; i++ {
			hub.BroadcastJSON("flood", i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("BroadcastJSON blocked on a full queue")
	}
	if len(hub.broadcast) != broadcastBuffer {
		t.Errorf("queued = %d, want %d", len(hub.broadcast), broadcastBuffer)
	}
}

func TestHub_RunWithContext_ClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.RunWithContext(ctx) }()

	c := createTestClient(hub, sendBuffer)
	hub.Register <- c
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("GetClientCount() = %d after shutdown", hub.GetClientCount())
	}
	if _, ok := <-c.send; ok {
		t.Error("client channel should be closed on shutdown")
	}

	// A supervisor restart reuses the same hub.
	ctx2, cancel2 := context.WithCancel(context.Background())
	go func() { errCh <- hub.RunWithContext(ctx2) }()
	again := createTestClient(hub, sendBuffer)
	hub.Register <- again
	hub.BroadcastJSON(MessageTypeNotification, "after restart")
	if msg := receive(t, again); msg.Data != "after restart" {
		t.Errorf("Data = %v after restart", msg.Data)
	}
	cancel2()
	<-errCh
}

func TestGetShutdownReason(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()

	tests := []struct {
		name string
		ctx  context.Context
		want ShutdownReason
	}{
		{"canceled", canceled, ShutdownReasonContextCanceled},
		{"deadline", expired, ShutdownReasonContextDeadline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getShutdownReason(tt.ctx); got != tt.want {
				t.Errorf("getShutdownReason() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMarshalMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want []string
	}{
		{
			name: "status update with no backends",
			msg:  Message{Type: MessageTypeStatusUpdate, Data: StatusUpdateData{Statuses: map[string]models.BackendStatus{}}},
			want: []string{`"type":"status_update"`, `"statuses":{}`, `"meta":`},
		},
		{
			name: "notification",
			msg: Message{ID: "m1", Type: MessageTypeNotification, Data: models.Notification{
				ID: "offline-jf", Kind: models.AlertOffline, Severity: models.SeverityError, BackendID: "jf",
			}},
			want: []string{`"id":"m1"`, `"type":"notification"`, `"offline-jf"`},
		},
		{
			name: "pong without id",
			msg:  Message{Type: MessageTypePong},
			want: []string{`"type":"pong"`, `"data":null`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalMessage(tt.msg)
			if err != nil {
				t.Fatalf("MarshalMessage() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(string(data), w) {
					t.Errorf("%s missing %s", data, w)
				}
			}
		})
	}
}

func TestBroadcastStage(t *testing.T) {
	hub := setupHub(t)
	c := createTestClient(hub, sendBuffer)
	hub.Register <- c

	stage := NewBroadcastStage(hub)
	if stage.Name() != "broadcast" {
		t.Errorf("Name() = %q", stage.Name())
	}
	stage.Process(context.Background(), &poller.Cycle{ID: "c-7", Statuses: nil, Meta: models.PollMeta{Backends: 0}})

	msg := receive(t, c)
	data := msg.Data.(StatusUpdateData)
	if data.CycleID != "c-7" || data.Statuses == nil {
		t.Errorf("unexpected payload %+v", data)
	}
}
