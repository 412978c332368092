// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package normalize

import (
	"math"
	"net/url"
	"strings"

	"github.com/tomtom215/omnistream/internal/models"
)

// Payload kind labels.
const (
	KindPlex         = "plex"
	KindJellyfinEmby = "jellyfin/emby"
)

// DefaultArtworkProxyPath is where relative poster paths are rewritten to.
const DefaultArtworkProxyPath = "/api/v1/artwork"

// Result is the normalized view of one backend response.
type Result struct {
	Kind     string
	Sessions []models.Session
	Summary  models.BackendSummary
}

// Options configures a Normalizer.
type Options struct {
	// ArtworkProxyPath prefixes rewritten relative poster paths.
	ArtworkProxyPath string
}

// Normalizer maps vendor payloads onto the canonical session model.
// It holds configuration only and is safe for concurrent use.
type Normalizer struct {
	proxyPath string
}

// New creates a Normalizer.
func New(opts Options) *Normalizer {
	p := strings.TrimRight(opts.ArtworkProxyPath, "/")
	if p == "" {
		p = DefaultArtworkProxyPath
	}
	return &Normalizer{proxyPath: p}
}

// NormalizeBytes decodes body and normalizes it. A body that is not JSON is
// treated as an opaque string payload.
func (n *Normalizer) NormalizeBytes(body []byte, d *models.BackendDescriptor) Result {
	payload, err := Decode(body)
	if err != nil {
		return emptyResult(typeTag(string(body)))
	}
	return n.Normalize(payload, d)
}

// Normalize maps a decoded payload. It never fails.
func (n *Normalizer) Normalize(payload any, d *models.BackendDescriptor) Result {
	m := mapper{proxyPath: n.proxyPath, backendID: d.ID}

	if o, ok := asObject(payload); ok {
		if _, isPlex := o["MediaContainer"]; isPlex {
			return finish(KindPlex, m.plexSessions(o))
		}
	}

	if list := asList(payload); len(list) > 0 {
		// The head picks the shape for the whole list; entries of the other
		// shape are dropped by the per-entry filters.
		head, _ := asObject(list[0])
		switch {
		case isFlatEntry(head):
			return finish(KindJellyfinEmby, m.flatSessions(list))
		case hasJellyfinShape(head):
			return finish(KindJellyfinEmby, m.jellyfinSessions(list))
		default:
			return finish(KindJellyfinEmby, nil)
		}
	}

	return emptyResult(typeTag(payload))
}

func emptyResult(kind string) Result {
	return Result{Kind: kind, Sessions: []models.Session{}}
}

func finish(kind string, sessions []models.Session) Result {
	if sessions == nil {
		sessions = []models.Session{}
	}
	return Result{Kind: kind, Sessions: sessions, Summary: Summarize(sessions)}
}

// mapper carries the per-call context the shape mappers need.
type mapper struct {
	proxyPath string
	backendID string
}

// poster passes absolute URLs through and rewrites vendor-relative paths to
// the artwork proxy. Credentials are never attached here.
func (m mapper) poster(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return ref
	}
	return m.proxyPath + "/" + url.PathEscape(m.backendID) + "?path=" + url.QueryEscape(ref)
}

// progressPercent derives progress from position and duration when both are
// positive, otherwise uses the vendor value. The result is clamped to [0,100].
func progressPercent(position, duration float64, vendor float64, hasVendor bool) int {
	switch {
	case position > 0 && duration > 0:
		return clampPercent(math.Round(position / duration * 100))
	case hasVendor:
		return clampPercent(math.Round(vendor))
	default:
		return 0
	}
}

func clampPercent(p float64) int {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return int(p)
	}
}

// wholeSeconds converts v units to whole seconds, rounding.
func wholeSeconds(v, unitsPerSecond float64) int64 {
	if v <= 0 {
		return 0
	}
	return int64(math.Round(v / unitsPerSecond))
}

// describe renders "decision (detail detail)" while tolerating gaps.
func describe(decision string, details ...string) string {
	parts := make([]string, 0, len(details))
	for _, d := range details {
		if d = strings.TrimSpace(d); d != "" {
			parts = append(parts, d)
		}
	}
	inner := strings.Join(parts, " ")
	decision = strings.TrimSpace(decision)
	switch {
	case inner == "":
		return decision
	case decision == "":
		return inner
	default:
		return decision + " (" + inner + ")"
	}
}

// upperLocation upper-cases lan/wan labels and leaves anything else alone.
func upperLocation(loc string) string {
	switch strings.ToUpper(strings.TrimSpace(loc)) {
	case models.LocationLAN:
		return models.LocationLAN
	case models.LocationWAN:
		return models.LocationWAN
	default:
		return loc
	}
}

func lanWAN(local bool) string {
	if local {
		return models.LocationLAN
	}
	return models.LocationWAN
}
