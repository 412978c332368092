// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"fmt"
	"strings"

	"github.com/tomtom215/omnistream/internal/models"
)

// Discord embed colours.
const (
	colorError = 0xFF0000
	colorWarn  = 0xFFA500
	colorInfo  = 0x3498DB
)

// Glyph returns the marker prefixed to free-text messages.
func Glyph(s models.Severity) string {
	switch s {
	case models.SeverityError:
		return "🔴"
	case models.SeverityWarn:
		return "🟠"
	default:
		return "🔵"
	}
}

// FormatText renders n as one line of human readable text. Every channel
// that accepts free text uses it.
func FormatText(n *models.Notification) string {
	sev := n.Severity
	if sev == "" {
		sev = models.SeverityInfo
	}
	return fmt.Sprintf("%s [%s] %s: %s", Glyph(sev), strings.ToUpper(string(sev)), backendLabel(n), n.Message)
}

// FormatTitle renders a short subject line for n.
func FormatTitle(n *models.Notification) string {
	return fmt.Sprintf("OmniStream: %s on %s", n.Kind, backendLabel(n))
}

func backendLabel(n *models.Notification) string {
	if n.BackendName != "" {
		return n.BackendName
	}
	if n.BackendID != "" {
		return n.BackendID
	}
	return "OmniStream"
}

func severityColor(s models.Severity) int {
	switch s {
	case models.SeverityError:
		return colorError
	case models.SeverityWarn:
		return colorWarn
	default:
		return colorInfo
	}
}

// ntfy priorities run 1 (min) to 5 (max).
func ntfyPriority(s models.Severity) string {
	switch s {
	case models.SeverityError:
		return "5"
	case models.SeverityWarn:
		return "4"
	default:
		return "3"
	}
}

// Pushover priorities run -2 to 2. Emergency (2) needs retry/expire
// parameters, so errors stop at high.
func pushoverPriority(s models.Severity) string {
	switch s {
	case models.SeverityError:
		return "1"
	case models.SeverityWarn:
		return "0"
	default:
		return "-1"
	}
}
