// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/omnistream/internal/models"
)

const (
	// DefaultTimeout bounds a single backend fetch.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodyBytes caps how much of a response body is read.
	DefaultMaxBodyBytes int64 = 16 << 20

	errorSnippetBytes = 200
	legacyInfoPath    = "/System/Info"
	userAgent         = "OmniStream/1.0"
)

// credential names one vendor's token header and query parameter.
type credential struct {
	header      string
	headerValue func(token string) string
	query       string
}

func plainToken(token string) string { return token }

var credentials = map[models.BackendKind]credential{
	models.KindPlex:     {header: "X-Plex-Token", headerValue: plainToken, query: "X-Plex-Token"},
	models.KindJellyfin: {header: "X-MediaBrowser-Token", headerValue: plainToken, query: "api_key"},
	models.KindEmby:     {header: "X-Emby-Token", headerValue: plainToken, query: "X-Emby-Token"},
	models.KindGeneric: {
		header:      "Authorization",
		headerValue: func(token string) string { return "Bearer " + token },
		query:       "token",
	},
}

// DefaultPath returns the sessions endpoint for a vendor kind.
func DefaultPath(kind models.BackendKind) string {
	switch kind {
	case models.KindPlex:
		return "/status/sessions"
	case models.KindJellyfin, models.KindEmby:
		return "/Sessions"
	default:
		return "/"
	}
}

// EffectivePath returns the descriptor's override or the vendor default.
// Jellyfin and Emby descriptors that still point at /System/Info are moved
// to /Sessions, which is the endpoint that lists playback.
func EffectivePath(d *models.BackendDescriptor) string {
	kind := d.EffectiveKind()
	path := strings.TrimSpace(d.APIPath)
	if path == "" {
		return DefaultPath(kind)
	}
	if (kind == models.KindJellyfin || kind == models.KindEmby) && strings.EqualFold(path, legacyInfoPath) {
		return DefaultPath(kind)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// BuildRequest creates the GET request for d with its credential attached.
func BuildRequest(ctx context.Context, d *models.BackendDescriptor) (*http.Request, error) {
	base := strings.TrimRight(strings.TrimSpace(d.BaseURL), "/")
	u, err := url.Parse(base + EffectivePath(d))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url: unsupported scheme %q", u.Scheme)
	}

	cred := credentials[d.EffectiveKind()]
	if d.Token != "" && d.EffectiveTokenPlacement() == models.TokenInQuery {
		q := u.Query()
		q.Set(cred.query, d.Token)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if d.Token != "" && d.EffectiveTokenPlacement() == models.TokenInHeader {
		req.Header.Set(cred.header, cred.headerValue(d.Token))
	}
	return req, nil
}

// FetchResult is the raw outcome of one backend fetch.
type FetchResult struct {
	StatusCode int
	Body       []byte
	Latency    time.Duration
	Err        error
}

// OK reports whether the fetch produced a usable body.
func (r FetchResult) OK() bool {
	return r.Err == nil
}

// Fetcher performs bounded-timeout GETs against backends.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	maxBodyBytes int64
}

// NewFetcher creates a Fetcher. A nil client uses a dedicated client with
// sane transport limits; zero values pick the package defaults.
func NewFetcher(client *http.Client, timeout time.Duration, maxBodyBytes int64) *Fetcher {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Fetcher{client: client, timeout: timeout, maxBodyBytes: maxBodyBytes}
}

// Fetch issues one GET for d. It never returns a Go error: every failure is
// described in the result so the caller can record it as backend state.
func (f *Fetcher) Fetch(ctx context.Context, d *models.BackendDescriptor) FetchResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := BuildRequest(ctx, d)
	if err != nil {
		return FetchResult{Latency: time.Since(start), Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return FetchResult{Latency: time.Since(start), Err: f.describeTransportError(err)}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	result := FetchResult{StatusCode: resp.StatusCode, Latency: time.Since(start)}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := body
		if len(snippet) > errorSnippetBytes {
			snippet = snippet[:errorSnippetBytes]
		}
		result.Err = fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		return result
	}
	if readErr != nil {
		result.Err = fmt.Errorf("failed to read response: %w", f.describeTransportError(readErr))
		return result
	}
	if int64(len(body)) > f.maxBodyBytes {
		result.Err = fmt.Errorf("response body exceeds %d bytes", f.maxBodyBytes)
		return result
	}
	result.Body = body
	return result
}

// describeTransportError strips the request URL from client errors so a
// query-string credential never reaches status records or logs.
func (f *Fetcher) describeTransportError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return fmt.Errorf("timeout after %s", f.timeout)
		}
		return ue.Err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timeout after %s", f.timeout)
	}
	return err
}
