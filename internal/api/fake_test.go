// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/omnistream/internal/history"
	"github.com/tomtom215/omnistream/internal/models"
	"github.com/tomtom215/omnistream/internal/notify"
	"github.com/tomtom215/omnistream/internal/poller"
)

var (
	t1 = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	t2 = t1.Add(15 * time.Second)
)

type fakeStatus struct {
	mu         sync.Mutex
	statuses   map[string]models.BackendStatus
	meta       *models.PollMeta
	triggerErr error
	triggers   int
}

func (f *fakeStatus) CurrentStatuses() map[string]models.BackendStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]models.BackendStatus, len(f.statuses))
	for k, v := range f.statuses {
		out[k] = v
	}
	return out
}

func (f *fakeStatus) Status(id string) (models.BackendStatus, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.statuses[id]
	return st, ok
}

func (f *fakeStatus) LastPollMeta() (models.PollMeta, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.meta == nil {
		return models.PollMeta{}, false
	}
	return *f.meta, true
}

func (f *fakeStatus) Ready() bool {
	_, ok := f.LastPollMeta()
	return ok
}

func (f *fakeStatus) TriggerNow(context.Context) (*poller.Cycle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers++
	if f.triggerErr != nil {
		return nil, f.triggerErr
	}
	meta := models.PollMeta{Timestamp: t2, DurationMs: 12, Backends: len(f.statuses)}
	f.meta = &meta
	return &poller.Cycle{ID: "cycle-now", Timestamp: t2, Statuses: f.statuses, Meta: meta}, nil
}

type fakeNotifications struct {
	notes   []models.Notification
	testErr map[string]error
}

func (f *fakeNotifications) CurrentNotifications() []models.Notification {
	return f.notes
}

func (f *fakeNotifications) TestChannel(_ context.Context, channel string) (models.Notification, error) {
	n := models.Notification{
		ID: models.NotificationID(models.AlertTest, channel), Severity: models.SeverityInfo,
		Kind: models.AlertTest, BackendName: "OmniStream", Message: "Test notification from OmniStream",
	}
	if err, ok := f.testErr[channel]; ok {
		return n, err
	}
	return n, nil
}

type fakeChannels struct {
	errs  []notify.ChannelError
	infos []notify.ChannelInfo
}

func (f *fakeChannels) LastErrors() []notify.ChannelError { return f.errs }
func (f *fakeChannels) Channels() []notify.ChannelInfo    { return f.infos }

func sampleStatuses() map[string]models.BackendStatus {
	return map[string]models.BackendStatus{
		"plex-home": {
			ID: "plex-home", Name: "Home Plex", Kind: models.KindPlex, Online: true, CheckedAt: t1,
			Sessions: []models.Session{
				{User: "alice", Title: "Dune", Bandwidth: 8.5, Location: "WAN", Stream: "Direct Play"},
				{User: "Bob", Title: "Pilot", GrandparentTitle: "Severance", Bandwidth: 3, Location: "LAN"},
			},
		},
		"jf": {
			ID: "jf", Name: "Jellyfin", Kind: models.KindJellyfin, Online: true, CheckedAt: t1,
			Sessions: []models.Session{{User: "carol", Title: "Heat", Bandwidth: 20, Location: "WAN"}},
		},
	}
}

// seededRecorder holds four rows: three at t1 (jf first, then plex-home in
// session order) and carol again at t2.
func seededRecorder(t *testing.T) *history.Recorder {
	t.Helper()
	rec := history.NewRecorder(history.NewMemoryStore(), 100)
	statuses := sampleStatuses()
	rec.Record(context.Background(), t1, statuses)
	rec.Record(context.Background(), t2, map[string]models.BackendStatus{"jf": statuses["jf"]})
	return rec
}

func newTestServer(t *testing.T, deps Deps, cfg *ChiMiddlewareConfig) *httptest.Server {
	t.Helper()
	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
		cfg.RateLimitRequests = 0
	}
	srv := httptest.NewServer(NewRouter(NewHandler(deps, NewChiMiddleware(cfg))))
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func do(t *testing.T, srv *httptest.Server, method, path string) (*http.Response, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
	}
	return resp, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func expectError(t *testing.T, resp *http.Response, env envelope, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Errorf("status = %d, want %d", resp.StatusCode, status)
	}
	if env.Success || env.Error == nil {
		t.Fatalf("expected error envelope, got %+v", env)
	}
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
}
