// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/omnistream/internal/models"
	"github.com/tomtom215/omnistream/internal/notify"
	"github.com/tomtom215/omnistream/internal/poller"
)

func TestStatus(t *testing.T) {
	meta := models.PollMeta{Timestamp: t1, DurationMs: 40, Backends: 2}
	srv := newTestServer(t, Deps{Status: &fakeStatus{statuses: sampleStatuses(), meta: &meta}}, nil)

	resp, env := do(t, srv, http.MethodGet, "/api/v1/status")
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, success = %v", resp.StatusCode, env.Success)
	}
	if env.Meta == nil || env.Meta.RequestID == "" || env.Meta.RequestID != resp.Header.Get("X-Request-ID") {
		t.Errorf("meta request id %+v does not match header %q", env.Meta, resp.Header.Get("X-Request-ID"))
	}

	var body StatusResponse
	decodeData(t, env, &body)
	if len(body.Statuses) != 2 || body.Setup {
		t.Errorf("statuses = %d, setup = %v", len(body.Statuses), body.Setup)
	}
	if body.Meta == nil || body.Meta.DurationMs != 40 {
		t.Errorf("meta = %+v", body.Meta)
	}
	if got := body.Statuses["plex-home"].Sessions[0].User; got != "alice" {
		t.Errorf("first plex session user = %q", got)
	}
}

func TestStatus_BeforeFirstCycle(t *testing.T) {
	srv := newTestServer(t, Deps{Status: &fakeStatus{}}, nil)

	_, env := do(t, srv, http.MethodGet, "/api/v1/status")
	var body StatusResponse
	decodeData(t, env, &body)
	if body.Meta != nil || !body.Setup || body.Statuses == nil {
		t.Errorf("body = %+v, want empty statuses, nil meta, setup", body)
	}
}

func TestBackendStatus(t *testing.T) {
	srv := newTestServer(t, Deps{Status: &fakeStatus{statuses: sampleStatuses()}}, nil)

	resp, env := do(t, srv, http.MethodGet, "/api/v1/status/jf")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var st models.BackendStatus
	decodeData(t, env, &st)
	if st.ID != "jf" || st.Kind != models.KindJellyfin {
		t.Errorf("status = %+v", st)
	}

	resp, env = do(t, srv, http.MethodGet, "/api/v1/status/missing")
	expectError(t, resp, env, http.StatusNotFound, ErrCodeNotFound)
}

func TestPoll(t *testing.T) {
	tests := []struct {
		name       string
		triggerErr error
		wantStatus int
		wantCode   string
	}{
		{"runs a cycle", nil, http.StatusOK, ""},
		{"cycle in progress", poller.ErrCycleInProgress, http.StatusConflict, ErrCodeConflict},
		{"registry failure", errors.New("list backends: open servers.json: permission denied"),
			http.StatusInternalServerError, ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStatus{statuses: sampleStatuses(), triggerErr: tt.triggerErr}
			srv := newTestServer(t, Deps{Status: fs}, nil)

			resp, env := do(t, srv, http.MethodPost, "/api/v1/poll")
			if fs.triggers != 1 {
				t.Errorf("triggers = %d, want 1", fs.triggers)
			}
			if tt.wantCode != "" {
				expectError(t, resp, env, tt.wantStatus, tt.wantCode)
				return
			}
			var body StatusResponse
			decodeData(t, env, &body)
			if body.CycleID != "cycle-now" || body.Meta == nil || body.Meta.Backends != 2 {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestPoll_RequiresPost(t *testing.T) {
	srv := newTestServer(t, Deps{Status: &fakeStatus{}}, nil)
	resp, env := do(t, srv, http.MethodGet, "/api/v1/poll")
	expectError(t, resp, env, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
}

func TestHistory(t *testing.T) {
	srv := newTestServer(t, Deps{History: seededRecorder(t)}, nil)

	tests := []struct {
		name       string
		query      url.Values
		wantTitles []string
	}{
		{"newest first by default", nil, []string{"Heat", "Severance", "Dune", "Heat"}},
		{"backend filter", url.Values{"backend_id": {"plex-home"}}, []string{"Severance", "Dune"}},
		{"user is case-insensitive", url.Values{"user": {"BOB"}}, []string{"Severance"}},
		{"text search", url.Values{"q": {"heat"}}, []string{"Heat", "Heat"}},
		{"from is inclusive", url.Values{"from": {"2026-03-14T20:00:15Z"}}, []string{"Heat"}},
		{"to is inclusive", url.Values{"to": {"2026-03-14T20:00:00Z"}, "order": {"asc"}}, []string{"Heat", "Dune", "Severance"}},
		{"bandwidth sort with limit", url.Values{"sort": {"bandwidth"}, "limit": {"1"}}, []string{"Heat"}},
		{"no match", url.Values{"user": {"nobody"}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := do(t, srv, http.MethodGet, "/api/v1/history?"+tt.query.Encode())
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, error = %+v", resp.StatusCode, env.Error)
			}
			var rows []models.HistoryRow
			decodeData(t, env, &rows)
			got := make([]string, len(rows))
			for i, r := range rows {
				got[i] = r.Title
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.wantTitles) {
				t.Errorf("titles = %v, want %v", got, tt.wantTitles)
			}
			if env.Meta.Count == nil || *env.Meta.Count != len(tt.wantTitles) {
				t.Errorf("meta count = %v, want %d", env.Meta.Count, len(tt.wantTitles))
			}
		})
	}
}

func TestHistory_InvalidParameters(t *testing.T) {
	srv := newTestServer(t, Deps{History: seededRecorder(t)}, nil)

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"unparseable from", "from=yesterday", ErrCodeBadRequest},
		{"non-integer limit", "limit=ten", ErrCodeBadRequest},
		{"unknown sort", "sort=size", ErrCodeValidationFailed},
		{"unknown order", "order=sideways", ErrCodeValidationFailed},
		{"negative limit", "limit=-1", ErrCodeValidationFailed},
		{"reversed range", "from=2026-03-15T00:00:00Z&to=2026-03-14T00:00:00Z", ErrCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := do(t, srv, http.MethodGet, "/api/v1/history?"+tt.query)
			expectError(t, resp, env, http.StatusBadRequest, tt.code)
		})
	}
}

func TestNotifications(t *testing.T) {
	notes := []models.Notification{
		{ID: "offline-jf", Kind: models.AlertOffline, Severity: models.SeverityError, BackendID: "jf"},
		{ID: "wanTranscode-plex-home", Kind: models.AlertWANTranscode, Severity: models.SeverityWarn, BackendID: "plex-home"},
	}
	channels := &fakeChannels{
		errs:  []notify.ChannelError{{ID: "e1", Channel: "slack", NotificationID: "offline-jf", Code: "SERVER_ERROR", Message: "HTTP 500"}},
		infos: []notify.ChannelInfo{{Name: "slack", Enabled: true, Breaker: "closed"}},
	}
	srv := newTestServer(t, Deps{Notifications: &fakeNotifications{notes: notes}, Channels: channels}, nil)

	_, env := do(t, srv, http.MethodGet, "/api/v1/notifications")
	var got []models.Notification
	decodeData(t, env, &got)
	if len(got) != 2 || got[0].ID != "offline-jf" || *env.Meta.Count != 2 {
		t.Errorf("notifications = %+v", got)
	}

	_, env = do(t, srv, http.MethodGet, "/api/v1/notifications/errors")
	var errs []notify.ChannelError
	decodeData(t, env, &errs)
	if len(errs) != 1 || errs[0].Channel != "slack" || errs[0].NotificationID != "offline-jf" {
		t.Errorf("errors = %+v", errs)
	}

	_, env = do(t, srv, http.MethodGet, "/api/v1/notifications/channels")
	var infos []notify.ChannelInfo
	decodeData(t, env, &infos)
	if len(infos) != 1 || infos[0].Breaker != "closed" {
		t.Errorf("channels = %+v", infos)
	}
}

func TestNotificationErrors_NoDispatcher(t *testing.T) {
	srv := newTestServer(t, Deps{}, nil)
	_, env := do(t, srv, http.MethodGet, "/api/v1/notifications/errors")
	if !env.Success || string(env.Data) != "[]" {
		t.Errorf("data = %s, want []", env.Data)
	}
}

func TestTestNotification(t *testing.T) {
	fn := &fakeNotifications{testErr: map[string]error{
		"email":    notify.ErrUnknownChannel,
		"sms":      notify.ErrChannelDisabled,
		"discord":  &notify.SendError{Code: notify.ErrorCodeAuthFailed, StatusCode: 401, Message: "discord: HTTP 401"},
		"pushover": gobreaker.ErrOpenState,
	}}
	srv := newTestServer(t, Deps{Notifications: fn}, nil)

	resp, env := do(t, srv, http.MethodPost, "/api/v1/notifications/test/slack")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var ok TestNotificationResponse
	decodeData(t, env, &ok)
	if !ok.Delivered || ok.Channel != "slack" || ok.Notification.ID != "test-slack" {
		t.Errorf("response = %+v", ok)
	}

	tests := []struct {
		channel string
		status  int
		code    string
	}{
		{"email", http.StatusNotFound, ErrCodeNotFound},
		{"sms", http.StatusConflict, ErrCodeConflict},
		{"discord", http.StatusBadGateway, ErrCodeDeliveryFailed},
		{"pushover", http.StatusBadGateway, ErrCodeDeliveryFailed},
	}
	for _, tt := range tests {
		t.Run(tt.channel, func(t *testing.T) {
			resp, env := do(t, srv, http.MethodPost, "/api/v1/notifications/test/"+tt.channel)
			expectError(t, resp, env, tt.status, tt.code)
		})
	}
}

func TestHealth(t *testing.T) {
	fs := &fakeStatus{}
	srv := newTestServer(t, Deps{Status: fs}, nil)

	resp, _ := do(t, srv, http.MethodGet, "/api/v1/health/live")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("live = %d, want 200", resp.StatusCode)
	}

	resp, env := do(t, srv, http.MethodGet, "/api/v1/health/ready")
	expectError(t, resp, env, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)

	if _, err := fs.TriggerNow(t.Context()); err != nil {
		t.Fatal(err)
	}
	resp, _ = do(t, srv, http.MethodGet, "/api/v1/health/ready")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ready after first cycle = %d, want 200", resp.StatusCode)
	}
}

func TestMissingDependencies(t *testing.T) {
	srv := newTestServer(t, Deps{}, nil)
	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/status"},
		{http.MethodGet, "/api/v1/status/x"},
		{http.MethodPost, "/api/v1/poll"},
		{http.MethodGet, "/api/v1/history"},
		{http.MethodGet, "/api/v1/notifications"},
		{http.MethodPost, "/api/v1/notifications/test/slack"},
		{http.MethodGet, "/api/v1/ws"},
	} {
		resp, env := do(t, srv, route.method, route.path)
		if resp.StatusCode != http.StatusServiceUnavailable || env.Error == nil {
			t.Errorf("%s %s = %d, want 503 envelope", route.method, route.path, resp.StatusCode)
		}
	}
}
