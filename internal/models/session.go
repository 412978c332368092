// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package models

// Network locations reported on a Session. An empty string means unknown.
const (
	LocationLAN = "LAN"
	LocationWAN = "WAN"
)

// Session is one active playback normalized from a vendor payload.
// Duration and ViewOffset are whole seconds, Bandwidth is Mbps.
type Session struct {
	User             string  `json:"user"`
	Title            string  `json:"title"`
	GrandparentTitle string  `json:"grandparentTitle,omitempty"`
	Episode          string  `json:"episode,omitempty"`
	Channel          string  `json:"channel,omitempty"`
	Year             *int    `json:"year,omitempty"`
	Platform         string  `json:"platform"`
	Player           string  `json:"player,omitempty"`
	Product          string  `json:"product,omitempty"`
	State            string  `json:"state"`
	Stream           string  `json:"stream"`
	Poster           string  `json:"poster,omitempty"`
	Duration         int64   `json:"duration"`
	ViewOffset       int64   `json:"viewOffset"`
	Progress         int     `json:"progress"`
	Quality          string  `json:"quality,omitempty"`
	Container        string  `json:"container,omitempty"`
	Video            string  `json:"video,omitempty"`
	Audio            string  `json:"audio,omitempty"`
	Subtitle         string  `json:"subtitle,omitempty"`
	Location         string  `json:"location"`
	IP               string  `json:"ip,omitempty"`
	Bandwidth        float64 `json:"bandwidth"`
	Transcoding      *bool   `json:"transcoding,omitempty"`
	Season           *int    `json:"season,omitempty"`
	EpisodeNumber    *int    `json:"episodeNumber,omitempty"`
	Live             bool    `json:"live"`
}

// BackendSummary is the per-backend rollup of its current sessions.
type BackendSummary struct {
	DirectPlays    int     `json:"directPlays"`
	Transcodes     int     `json:"transcodes"`
	TotalBandwidth float64 `json:"totalBandwidth"`
	LANBandwidth   float64 `json:"lanBandwidth"`
	WANBandwidth   float64 `json:"wanBandwidth"`
}

// Bool returns a pointer to b, for the optional tri-state fields.
func Bool(b bool) *bool {
	return &b
}

// Int returns a pointer to n.
func Int(n int) *int {
	return &n
}
