// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

/*
Package bandwidth converts the bitrate figures reported by media servers into
megabits per second and derives human-readable quality labels.

Vendors disagree on units. Plex reports kilobits per second on its session
objects, Jellyfin and Emby report bits per second on transcoding info and media
streams, and flat/custom feeds report whatever their author chose. The helpers
here keep every conversion in one place:

	KbpsToMbps(20280)           // 20.28
	BitsToMbps(8_000_000)       // 8
	CorrectKbps(20280)          // 20.28 (still looked like kbps)
	ParseLeading("12.5 Mbps")   // 12.5, true
	QualityLabel("1920x1080", 8) // "1080p (8.0 Mbps)"

CorrectKbps is a heuristic with no vendor contract behind it: any value above
1000 "Mbps" is assumed to still be kbps. It is kept for compatibility with
existing dashboards and should be read as an approximation.
*/
package bandwidth
