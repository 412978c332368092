// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package normalize

import (
	"strings"

	"github.com/tomtom215/omnistream/internal/models"
)

var (
	flatUser     = []extractor[string]{str("user"), str("userName"), str("UserName")}
	flatPlatform = []extractor[string]{str("platform"), str("Client"), str("DeviceName")}
)

// isFlatEntry matches the custom state/media_title shape. A bare state key
// is not enough: Jellyfin entries may carry a free-text state too.
func isFlatEntry(o object) bool {
	if o == nil {
		return false
	}
	if _, hasTitle := o["media_title"]; hasTitle {
		return true
	}
	_, hasState := o["state"]
	_, hasItem := o["NowPlayingItem"]
	_, hasPlayState := o["PlayState"]
	return hasState && !hasItem && !hasPlayState
}

func isPlaying(o object) bool {
	state, ok := asString(o["state"])
	if !ok || !strings.EqualFold(strings.TrimSpace(state), "playing") {
		return false
	}
	_, hasTitle := asString(o["media_title"])
	return hasTitle
}

func (m mapper) flatSessions(list []any) []models.Session {
	out := make([]models.Session, 0, len(list))
	for _, e := range list {
		o, ok := asObject(e)
		if !ok || !isPlaying(o) {
			continue
		}
		out = append(out, m.flatSession(o))
	}
	return out
}

func (m mapper) flatSession(o object) models.Session {
	duration, _ := asNumber(o["duration"])
	position, _ := asNumber(o["viewOffset"])
	fraction, hasFraction := asNumber(o["progress"])

	bw := firstOr(o, 0, numeric("bandwidth"))
	if bw < 0 {
		bw = 0
	}

	s := models.Session{
		User:             firstOr(o, "Unknown", flatUser...),
		Title:            firstOr(o, "Idle", str("media_title"), str("title")),
		GrandparentTitle: firstOr(o, "", str("grandparentTitle"), str("series")),
		Episode:          firstOr(o, "", str("episode")),
		Channel:          firstOr(o, "", str("channel")),
		Year:             intPtr(first(o, num("year"))),
		Platform:         firstOr(o, "", flatPlatform...),
		Player:           firstOr(o, "", str("player")),
		Product:          firstOr(o, "", str("product")),
		State:            firstOr(o, "", str("state")),
		Stream:           firstOr(o, "", str("stream")),
		Poster:           m.poster(firstOr(o, "", str("poster"))),
		Duration:         wholeSeconds(duration, 1),
		ViewOffset:       wholeSeconds(position, 1),
		Progress:         progressPercent(position, duration, fraction*100, hasFraction),
		Quality:          firstOr(o, "", str("quality")),
		Container:        firstOr(o, "", str("container")),
		Video:            firstOr(o, "", str("video")),
		Audio:            firstOr(o, "", str("audio")),
		Subtitle:         firstOr(o, "", str("subtitle")),
		Location:         upperLocation(firstOr(o, "", str("location"))),
		IP:               firstOr(o, "", str("ip")),
		Bandwidth:        bw,
		Live:             firstOr(o, false, flag("live")),
	}
	if t, ok := o["transcoding"].(bool); ok {
		s.Transcoding = models.Bool(t)
	}
	s.Season = intPtr(first(o, num("season")))
	s.EpisodeNumber = intPtr(first(o, num("episodeNumber")))
	return s
}
