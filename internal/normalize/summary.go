// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package normalize

import (
	"strings"

	"github.com/tomtom215/omnistream/internal/models"
)

// IsTranscoding classifies a session: the explicit flag wins, then a
// "transcode" substring in the stream label, then in the state label.
func IsTranscoding(s *models.Session) bool {
	if s.Transcoding != nil {
		return *s.Transcoding
	}
	if containsFold(s.Stream, "transcode") {
		return true
	}
	return containsFold(s.State, "transcode")
}

// IsWAN reports whether the session's location names the WAN.
func IsWAN(s *models.Session) bool {
	return containsFold(s.Location, models.LocationWAN)
}

// IsLAN reports whether the session's location names the LAN.
func IsLAN(s *models.Session) bool {
	return containsFold(s.Location, models.LocationLAN)
}

// Summarize rolls sessions up into direct/transcode counts and bandwidth
// totals. Every session lands in exactly one of the two counters.
func Summarize(sessions []models.Session) models.BackendSummary {
	var sum models.BackendSummary
	for i := range sessions {
		s := &sessions[i]
		if IsTranscoding(s) {
			sum.Transcodes++
		} else {
			sum.DirectPlays++
		}

		if s.Bandwidth <= 0 {
			continue
		}
		sum.TotalBandwidth += s.Bandwidth
		if IsLAN(s) {
			sum.LANBandwidth += s.Bandwidth
		}
		if IsWAN(s) {
			sum.WANBandwidth += s.Bandwidth
		}
	}
	return sum
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
