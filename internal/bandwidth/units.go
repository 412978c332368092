// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package bandwidth

import (
	"strconv"
	"strings"
)

// kbpsCeiling is the largest plausible per-session rate in Mbps. Anything
// above it is treated as a value that is still in kbps.
const kbpsCeiling = 1000.0

// KbpsToMbps converts kilobits per second to megabits per second.
func KbpsToMbps(kbps float64) float64 {
	return kbps / 1000
}

// BitsToMbps converts bits per second to megabits per second.
func BitsToMbps(bps float64) float64 {
	return bps / 1_000_000
}

// CorrectKbps divides by 1000 once more when mbps exceeds kbpsCeiling.
// Approximation only: see the package documentation.
func CorrectKbps(mbps float64) float64 {
	if mbps > kbpsCeiling {
		return mbps / 1000
	}
	return mbps
}

// ParseLeading parses the leading numeric run of s ("12.5 Mbps" -> 12.5).
// Leading whitespace and a sign are accepted; ok is false when s does not
// start with a number.
func ParseLeading(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	seenDigit, seenDot := false, false
scan:
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
		case r == '.' && !seenDot:
			seenDot = true
		case (r == '-' || r == '+') && i == 0:
		default:
			break scan
		}
		end = i + 1
	}
	if !seenDigit {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
