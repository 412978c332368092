// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/omnistream/internal/config"
	"github.com/tomtom215/omnistream/internal/models"
	"github.com/tomtom215/omnistream/internal/normalize"
)

// Default thresholds in Mbps.
const (
	DefaultHighBandwidthMbps    = 50
	DefaultHighWANBandwidthMbps = 30
)

// Rules selects which alert kinds are evaluated and their thresholds.
type Rules struct {
	Offline              bool
	WANTranscode         bool
	AnyWAN               bool
	HighBandwidth        bool
	HighBandwidthMbps    float64
	HighWANBandwidth     bool
	HighWANBandwidthMbps float64
}

// DefaultRules returns every rule enabled except AnyWAN.
func DefaultRules() Rules {
	return Rules{
		Offline:              true,
		WANTranscode:         true,
		HighBandwidth:        true,
		HighBandwidthMbps:    DefaultHighBandwidthMbps,
		HighWANBandwidth:     true,
		HighWANBandwidthMbps: DefaultHighWANBandwidthMbps,
	}
}

// RulesFromConfig converts the rule section of the configuration.
func RulesFromConfig(cfg config.RulesConfig) Rules {
	return Rules{
		Offline:              cfg.Offline.Enabled,
		WANTranscode:         cfg.WANTranscode.Enabled,
		AnyWAN:               cfg.AnyWAN.Enabled,
		HighBandwidth:        cfg.HighBandwidth.Enabled,
		HighBandwidthMbps:    cfg.HighBandwidth.ThresholdMbps,
		HighWANBandwidth:     cfg.HighWANBandwidth.Enabled,
		HighWANBandwidthMbps: cfg.HighWANBandwidth.ThresholdMbps,
	}
}

// Evaluate derives the active notifications for statuses. Backends are
// visited in ascending id order and rules in a fixed order, so the result is
// deterministic. An offline backend produces only its offline notification.
func (r Rules) Evaluate(statuses map[string]models.BackendStatus, now time.Time) []models.Notification {
	ids := make([]string, 0, len(statuses))
	for id := range statuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := []models.Notification{}
	for _, id := range ids {
		st := statuses[id]
		out = append(out, r.evaluateBackend(&st, now)...)
	}
	return out
}

func (r Rules) evaluateBackend(st *models.BackendStatus, now time.Time) []models.Notification {
	var out []models.Notification
	add := func(kind models.AlertKind, sev models.Severity, msg string) {
		out = append(out, models.Notification{
			ID:          models.NotificationID(kind, st.ID),
			Severity:    sev,
			BackendID:   st.ID,
			BackendName: st.Name,
			Kind:        kind,
			Message:     msg,
			Timestamp:   now,
		})
	}

	if !st.Online {
		if r.Offline {
			msg := "Server is offline"
			if st.Error != "" {
				msg += ": " + st.Error
			}
			add(models.AlertOffline, models.SeverityError, msg)
		}
		return out
	}

	wan, wanTranscodes := countWAN(st.Sessions)
	if r.WANTranscode && wanTranscodes > 0 {
		add(models.AlertWANTranscode, models.SeverityWarn,
			fmt.Sprintf("%d remote %s transcoding", wanTranscodes, plural(wanTranscodes, "session is", "sessions are")))
	}
	if r.AnyWAN && wan > 0 {
		add(models.AlertAnyWAN, models.SeverityInfo,
			fmt.Sprintf("%d remote %s active", wan, plural(wan, "session is", "sessions are")))
	}
	if r.HighBandwidth && st.Summary.TotalBandwidth > r.HighBandwidthMbps {
		add(models.AlertHighBandwidth, models.SeverityWarn,
			fmt.Sprintf("Total bandwidth %.1f Mbps exceeds %.1f Mbps", st.Summary.TotalBandwidth, r.HighBandwidthMbps))
	}
	if r.HighWANBandwidth && st.Summary.WANBandwidth > r.HighWANBandwidthMbps {
		add(models.AlertHighWANBandwidth, models.SeverityWarn,
			fmt.Sprintf("WAN bandwidth %.1f Mbps exceeds %.1f Mbps", st.Summary.WANBandwidth, r.HighWANBandwidthMbps))
	}
	return out
}

// countWAN classifies sessions the same way normalize.Summarize does.
func countWAN(sessions []models.Session) (wan, wanTranscodes int) {
	for i := range sessions {
		s := &sessions[i]
		if !normalize.IsWAN(s) {
			continue
		}
		wan++
		if normalize.IsTranscoding(s) {
			wanTranscodes++
		}
	}
	return wan, wanTranscodes
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
