// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/omnistream/internal/config"
	"github.com/tomtom215/omnistream/internal/models"
)

type capturedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// captureServer records requests and answers with status.
func captureServer(t *testing.T, status int, reply string) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var reqs []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, capturedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), reqs...)
	}
}

func onlyRequest(t *testing.T, reqs []capturedRequest) capturedRequest {
	t.Helper()
	if len(reqs) != 1 {
		t.Fatalf("got %d requests, want 1", len(reqs))
	}
	if reqs[0].Method != http.MethodPost {
		t.Errorf("method = %s, want POST", reqs[0].Method)
	}
	return reqs[0]
}

func TestFormatText(t *testing.T) {
	tests := []struct {
		n    models.Notification
		want string
	}{
		{models.Notification{Severity: models.SeverityError, BackendName: "Den", Message: "Server is offline"}, "🔴 [ERROR] Den: Server is offline"},
		{models.Notification{Severity: models.SeverityWarn, BackendID: "jf-1", Message: "hot"}, "🟠 [WARN] jf-1: hot"},
		{models.Notification{Message: "hello"}, "🔵 [INFO] OmniStream: hello"},
	}
	for _, tt := range tests {
		if got := FormatText(&tt.n); got != tt.want {
			t.Errorf("FormatText() = %q, want %q", got, tt.want)
		}
	}
	n := testNotification()
	if got := FormatTitle(n); got != "OmniStream: offline on Living Room" {
		t.Errorf("FormatTitle() = %q", got)
	}
}

func TestDiscordChannel_Send(t *testing.T) {
	srv, reqs := captureServer(t, http.StatusNoContent, "")
	ch := NewDiscordChannel(config.DiscordConfig{Enabled: true, WebhookURL: srv.URL + "/api/webhooks/1/abc"})

	if err := ch.Send(context.Background(), testNotification()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	req := onlyRequest(t, reqs())
	var payload DiscordWebhookPayload
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Username != "OmniStream" || len(payload.Embeds) != 1 {
		t.Fatalf("payload = %+v", payload)
	}
	embed := payload.Embeds[0]
	if embed.Color != colorError {
		t.Errorf("color = %#x, want %#x", embed.Color, colorError)
	}
	if embed.Description != FormatText(testNotification()) {
		t.Errorf("description = %q", embed.Description)
	}
	if embed.Timestamp != "2026-03-14T20:00:00Z" {
		t.Errorf("timestamp = %q", embed.Timestamp)
	}
}

func TestSlackChannel_Send(t *testing.T) {
	srv, reqs := captureServer(t, http.StatusOK, "ok")
	ch := NewSlackChannel(config.SlackConfig{Enabled: true, WebhookURL: srv.URL, Channel: "#alerts"})

	if err := ch.Send(context.Background(), testNotification()); err != nil {
		t.Fatal(err)
	}
	var body map[string]string
	if err := json.Unmarshal(onlyRequest(t, reqs()).Body, &body); err != nil {
		t.Fatal(err)
	}
	if body["text"] != FormatText(testNotification()) || body["channel"] != "#alerts" {
		t.Errorf("body = %v", body)
	}
}

func TestTelegramChannel_Send(t *testing.T) {
	srv, reqs := captureServer(t, http.StatusOK, `{"ok":true}`)
	ch := NewTelegramChannel(config.TelegramConfig{Enabled: true, BotToken: "123:abc", ChatID: "-100", APIBase: srv.URL + "/"})

	if err := ch.Send(context.Background(), testNotification()); err != nil {
		t.Fatal(err)
	}
	req := onlyRequest(t, reqs())
	if req.Path != "/bot123:abc/sendMessage" {
		t.Errorf("path = %s", req.Path)
	}
	var msg TelegramSendMessageRequest
	if err := json.Unmarshal(req.Body, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.ChatID != "-100" || msg.Text != FormatText(testNotification()) {
		t.Errorf("message = %+v", msg)
	}
}

func TestTelegramChannel_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TelegramConfig
		ok   bool
	}{
		{"valid", config.TelegramConfig{BotToken: "1:x", ChatID: "5"}, true},
		{"missing token", config.TelegramConfig{ChatID: "5"}, false},
		{"missing chat", config.TelegramConfig{BotToken: "1:x"}, false},
		{"bad token", config.TelegramConfig{BotToken: "nocolon", ChatID: "5"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewTelegramChannel(tt.cfg).Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestWebhookChannel_Send(t *testing.T) {
	srv, reqs := captureServer(t, http.StatusAccepted, "")
	ch := NewWebhookChannel(config.WebhookConfig{Enabled: true, URL: srv.URL + "/hook", Headers: map[string]string{"X-Api-Key": "k"}})

	if err := ch.Send(context.Background(), testNotification()); err != nil {
		t.Fatal(err)
	}
	req := onlyRequest(t, reqs())
	if req.Header.Get("X-Api-Key") != "k" || req.Header.Get("Content-Type") != "application/json" {
		t.Errorf("headers = %v", req.Header)
	}
	var payload WebhookPayload
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Event != WebhookEvent || payload.Source != "omnistream" {
		t.Errorf("payload = %+v", payload)
	}
	if payload.Notification == nil || payload.Notification.ID != "offline-plex-1" || payload.Notification.Kind != models.AlertOffline {
		t.Errorf("notification = %+v", payload.Notification)
	}
}

func TestSMSChannel_Send(t *testing.T) {
	srv, reqs := captureServer(t, http.StatusCreated, `{"sid":"SM1"}`)
	ch := NewSMSChannel(config.SMSConfig{Enabled: true, AccountSID: "AC1", AuthToken: "tok", From: "+15550001", To: "+15550002", APIBase: srv.URL})

	n := testNotification()
	n.Message = strings.Repeat("x", 300)
	if err := ch.Send(context.Background(), n); err != nil {
		t.Fatal(err)
	}
	req := onlyRequest(t, reqs())
	if req.Path != "/2010-04-01/Accounts/AC1/Messages.json" {
		t.Errorf("path = %s", req.Path)
	}
	if !strings.HasPrefix(req.Header.Get("Authorization"), "Basic ") {
		t.Errorf("missing basic auth: %v", req.Header)
	}
	form, err := url.ParseQuery(string(req.Body))
	if err != nil {
		t.Fatal(err)
	}
	if form.Get("To") != "+15550002" || form.Get("From") != "+15550001" {
		t.Errorf("form = %v", form)
	}
	if body := []rune(form.Get("Body")); len(body) != maxSMSLength || !strings.HasSuffix(string(body), "...") {
		t.Errorf("body not truncated to %d runes: %d", maxSMSLength, len(body))
	}
}

func TestPushoverChannel_Send(t *testing.T) {
	srv, reqs := captureServer(t, http.StatusOK, `{"status":1}`)
	ch := NewPushoverChannel(config.PushoverConfig{Enabled: true, Token: "app", User: "usr", APIBase: srv.URL})

	if err := ch.Send(context.Background(), testNotification()); err != nil {
		t.Fatal(err)
	}
	req := onlyRequest(t, reqs())
	if req.Path != "/1/messages.json" {
		t.Errorf("path = %s", req.Path)
	}
	form, _ := url.ParseQuery(string(req.Body))
	if form.Get("token") != "app" || form.Get("user") != "usr" || form.Get("priority") != "1" {
		t.Errorf("form = %v", form)
	}
	if form.Get("timestamp") != "1773518400" {
		t.Errorf("timestamp = %s", form.Get("timestamp"))
	}
}

func TestNtfyChannel_Send(t *testing.T) {
	srv, reqs := captureServer(t, http.StatusOK, "{}")
	ch := NewNtfyChannel(config.NtfyConfig{Enabled: true, Server: srv.URL, Topic: "media", AccessToken: "tk"})

	n := testNotification()
	n.Severity = models.SeverityWarn
	if err := ch.Send(context.Background(), n); err != nil {
		t.Fatal(err)
	}
	req := onlyRequest(t, reqs())
	if req.Path != "/media" {
		t.Errorf("path = %s", req.Path)
	}
	if req.Header.Get("Priority") != "4" || req.Header.Get("Title") != FormatTitle(n) {
		t.Errorf("headers = %v", req.Header)
	}
	if req.Header.Get("Tags") != "warning,offline" || req.Header.Get("Authorization") != "Bearer tk" {
		t.Errorf("tags/auth = %q %q", req.Header.Get("Tags"), req.Header.Get("Authorization"))
	}
	if string(req.Body) != FormatText(n) {
		t.Errorf("body = %q", req.Body)
	}
}

func TestHTTPChannel_ErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		code      string
		transient bool
	}{
		{http.StatusTooManyRequests, ErrorCodeRateLimited, true},
		{http.StatusBadGateway, ErrorCodeServerError, true},
		{http.StatusUnauthorized, ErrorCodeAuthFailed, false},
		{http.StatusBadRequest, ErrorCodeUnknown, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv, _ := captureServer(t, tt.status, "nope")
			err := NewSlackChannel(config.SlackConfig{Enabled: true, WebhookURL: srv.URL}).Send(context.Background(), testNotification())
			var se *SendError
			if !errors.As(err, &se) {
				t.Fatalf("Send() error = %v, want *SendError", err)
			}
			if se.Code != tt.code || se.StatusCode != tt.status || se.Transient() != tt.transient {
				t.Errorf("SendError = %+v", se)
			}
			if !strings.Contains(se.Error(), "nope") {
				t.Errorf("error %q should carry the response body", se.Error())
			}
		})
	}
}

func TestHTTPChannel_RetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewDiscordChannel(config.DiscordConfig{Enabled: true, WebhookURL: srv.URL}).Send(context.Background(), testNotification())
	var se *SendError
	if !errors.As(err, &se) || se.RetryAfter.Seconds() != 3 {
		t.Errorf("Send() error = %#v, want RetryAfter 3s", err)
	}
}

func TestHTTPChannel_ConnectionRefusedHidesURL(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL + "/secret-token"
	srv.Close()

	err := NewWebhookChannel(config.WebhookConfig{Enabled: true, URL: target}).Send(context.Background(), testNotification())
	var se *SendError
	if !errors.As(err, &se) {
		t.Fatalf("Send() error = %v", err)
	}
	if se.Code != ErrorCodeConnectionFailed || !se.Transient() {
		t.Errorf("code = %s", se.Code)
	}
	if strings.Contains(se.Error(), "secret-token") {
		t.Errorf("error leaks URL: %s", se.Error())
	}
}

func TestChannels_InvalidConfig(t *testing.T) {
	channels := []Channel{
		NewDiscordChannel(config.DiscordConfig{Enabled: true}),
		NewSlackChannel(config.SlackConfig{Enabled: true, WebhookURL: "ftp://x"}),
		NewWebhookChannel(config.WebhookConfig{Enabled: true, URL: "http://"}),
		NewSMSChannel(config.SMSConfig{Enabled: true, AccountSID: "AC"}),
		NewPushoverChannel(config.PushoverConfig{Enabled: true, Token: "t"}),
		NewNtfyChannel(config.NtfyConfig{Enabled: true, Topic: "a/b"}),
		NewEmailChannel(config.EmailConfig{Enabled: true, SMTPHost: "mail", From: "not-an-address", To: []string{"a@b.c"}}),
		NewNATSChannel(config.NATSConfig{Enabled: true, URL: "http://127.0.0.1:4222", Subject: "s"}),
		NewInAppChannel(true, nil),
	}
	for _, ch := range channels {
		t.Run(ch.Name(), func(t *testing.T) {
			if err := ch.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
			err := ch.Send(context.Background(), testNotification())
			var se *SendError
			if !errors.As(err, &se) || se.Code != ErrorCodeInvalidConfig {
				t.Errorf("Send() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

type recordingHub struct {
	mu   sync.Mutex
	msgs []string
	data []interface{}
}

func (h *recordingHub) BroadcastJSON(messageType string, data interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, messageType)
	h.data = append(h.data, data)
}

func TestInAppChannel_Send(t *testing.T) {
	hub := &recordingHub{}
	ch := NewInAppChannel(true, hub)
	if err := ch.Send(context.Background(), testNotification()); err != nil {
		t.Fatal(err)
	}
	if len(hub.msgs) != 1 || hub.msgs[0] != MessageTypeNotification {
		t.Fatalf("broadcasts = %v", hub.msgs)
	}
	if n, ok := hub.data[0].(*models.Notification); !ok || n.ID != "offline-plex-1" {
		t.Errorf("data = %#v", hub.data[0])
	}
}

func TestBuildChannels(t *testing.T) {
	t.Run("all disabled", func(t *testing.T) {
		chans, err := BuildChannels(config.ChannelsConfig{}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(chans) != 10 {
			t.Errorf("got %d channels, want 10", len(chans))
		}
		for _, ch := range chans {
			if ch.Enabled() {
				t.Errorf("%s enabled", ch.Name())
			}
		}
	})

	t.Run("inapp needs a hub", func(t *testing.T) {
		cfg := config.ChannelsConfig{InApp: config.InAppConfig{Enabled: true}}
		chans, err := BuildChannels(cfg, nil)
		if err != nil {
			t.Fatal(err)
		}
		for _, ch := range chans {
			if ch.Name() == ChannelInApp && ch.Enabled() {
				t.Error("inapp enabled without hub")
			}
		}
		chans, _ = BuildChannels(cfg, &recordingHub{})
		for _, ch := range chans {
			if ch.Name() == ChannelInApp && !ch.Enabled() {
				t.Error("inapp disabled with hub")
			}
		}
	})

	t.Run("invalid enabled channel", func(t *testing.T) {
		cfg := config.ChannelsConfig{
			Discord: config.DiscordConfig{Enabled: true},
			Ntfy:    config.NtfyConfig{Enabled: true},
		}
		_, err := BuildChannels(cfg, nil)
		if err == nil {
			t.Fatal("BuildChannels() = nil error")
		}
		if !strings.Contains(err.Error(), "discord") || !strings.Contains(err.Error(), "ntfy") {
			t.Errorf("error should name both channels: %v", err)
		}
	})
}
