// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package bandwidth

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolution tiers.
const (
	Tier4K    = "4k"
	Tier1080p = "1080p"
	Tier720p  = "720p"
	TierSD    = "sd"
)

// NormalizeResolution maps the resolution spellings used by Plex
// ("1080", "4k", "sd"), Jellyfin/Emby ("1920x1080") and free-form feeds
// ("720p") onto a tier. ok is false when the value is not recognized.
//
//   - "4k", "2160", "2160p", "3840x2160", "4096x2160" -> 4k
//   - "1080", "1080p", "1080i", "1920x1080" -> 1080p
//   - "720", "720p", "1280x720" -> 720p
//   - "sd", "480", "576", "480p", "720x480", "640x480" -> sd
func NormalizeResolution(resolution string) (string, bool) {
	r := strings.ToLower(strings.TrimSpace(resolution))
	switch r {
	case "":
		return "", false
	case "4k", "2160", "2160p", "uhd":
		return Tier4K, true
	case "1080", "1080p", "1080i", "fhd":
		return Tier1080p, true
	case "720", "720p", "hd":
		return Tier720p, true
	case "sd", "480", "480p", "576", "576p", "360", "360p":
		return TierSD, true
	}

	w, _, ok := parseDimensions(r)
	if !ok {
		return "", false
	}
	switch {
	case w >= 3000:
		return Tier4K, true
	case w >= 1600:
		return Tier1080p, true
	case w >= 1100:
		return Tier720p, true
	default:
		return TierSD, true
	}
}

// parseDimensions splits "1920x1080" into width and height.
func parseDimensions(r string) (int, int, bool) {
	ws, hs, found := strings.Cut(r, "x")
	if !found {
		return 0, 0, false
	}
	w, err := strconv.Atoi(strings.TrimSpace(ws))
	if err != nil || w <= 0 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(hs))
	if err != nil || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// QualityLabel builds a display label from a resolution and a bandwidth.
// Unrecognized resolutions are shown as reported. The bandwidth suffix is
// omitted when mbps is not positive.
func QualityLabel(resolution string, mbps float64) string {
	label, ok := NormalizeResolution(resolution)
	if !ok {
		label = strings.TrimSpace(resolution)
	}
	if mbps <= 0 {
		return label
	}
	if label == "" {
		return fmt.Sprintf("%.1f Mbps", mbps)
	}
	return fmt.Sprintf("%s (%.1f Mbps)", label, mbps)
}
