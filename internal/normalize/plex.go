// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package normalize

import (
	"strings"

	"github.com/tomtom215/omnistream/internal/bandwidth"
	"github.com/tomtom215/omnistream/internal/models"
)

// Plex stream types inside Media[].Part[].Stream[].
const (
	plexStreamVideo    = 1
	plexStreamAudio    = 2
	plexStreamSubtitle = 3
)

var (
	plexUser     = []extractor[string]{str("user"), str("User", "title")}
	plexTitle    = []extractor[string]{str("media_title"), str("title"), str("grandparentTitle")}
	plexEpisode  = []extractor[string]{str("episode"), when(present("grandparentTitle"), str("title"))}
	plexPlatform = []extractor[string]{str("platform"), str("Player", "platform"), str("Player", "product")}
	plexPlayer   = []extractor[string]{str("player"), str("Player", "title"), str("Player", "device")}
	plexProduct  = []extractor[string]{str("product"), str("Player", "product")}
	plexState    = []extractor[string]{str("state"), str("Player", "state")}
	plexIP       = []extractor[string]{str("Player", "address"), str("Player", "remotePublicAddress")}

	plexContainer  = []extractor[string]{str("container"), str("Media", "0", "container")}
	plexResolution = []extractor[string]{text("Media", "0", "videoResolution"), text("Video", "0", "resolution")}
	plexSubtitle   = []extractor[string]{
		str("subtitle"),
		text("Subtitle", "0", "language"),
		plexStreamField(plexStreamSubtitle, "language"),
		plexStreamField(plexStreamSubtitle, "displayTitle"),
	}
	plexLocation = []extractor[string]{
		func(o object) (string, bool) {
			loc, ok := asString(o["location"])
			return upperLocation(loc), ok
		},
		func(o object) (string, bool) {
			local, ok := asBool(lookup(o, "Player", "local"))
			return lanWAN(local), ok
		},
	}

	// Session.bandwidth and TranscodeSession.bitrate are kbps. The legacy
	// bandwidth field has no fixed unit.
	plexBandwidth = []extractor[float64]{
		scaled(num("Session", "bandwidth"), 1000),
		scaled(positive(numeric("TranscodeSession", "bitrate")), 1000),
		numeric("bandwidth"),
	}
)

func (m mapper) plexSessions(root object) []models.Session {
	entries := asList(lookup(root, "MediaContainer", "Metadata"))
	out := make([]models.Session, 0, len(entries))
	for _, e := range entries {
		if o, ok := asObject(e); ok {
			out = append(out, m.plexSession(o))
		}
	}
	return out
}

func (m mapper) plexSession(o object) models.Session {
	transcoding := plexPartTranscodes(o)

	bw := bandwidth.CorrectKbps(firstOr(o, 0, plexBandwidth...))
	if bw < 0 {
		bw = 0
	}

	durationMs, _ := asNumber(o["duration"])
	offsetMs, _ := asNumber(o["viewOffset"])
	vendorProgress, hasProgress := asNumber(o["progress"])

	mediaType := strings.ToLower(firstOr(o, "", str("type")))
	s := models.Session{
		User:             firstOr(o, "Unknown", plexUser...),
		Title:            firstOr(o, "Unknown", plexTitle...),
		GrandparentTitle: firstOr(o, "", str("grandparentTitle")),
		Episode:          firstOr(o, "", plexEpisode...),
		Channel:          firstOr(o, "", str("channelTitle")),
		Year:             intPtr(first(o, num("year"))),
		Platform:         firstOr(o, "", plexPlatform...),
		Player:           firstOr(o, "", plexPlayer...),
		Product:          firstOr(o, "", plexProduct...),
		State:            firstOr(o, "", plexState...),
		Stream:           firstOr(o, plexDecisionLabel(transcoding), str("stream"), str("transcodeDecision")),
		Poster:           m.poster(plexPosterRef(o, mediaType)),
		Duration:         wholeSeconds(durationMs, 1000),
		ViewOffset:       wholeSeconds(offsetMs, 1000),
		Progress:         progressPercent(offsetMs, durationMs, vendorProgress, hasProgress),
		Container:        firstOr(o, "", plexContainer...),
		Video:            firstOr(o, "", str("video"), plexVideo),
		Audio:            firstOr(o, "", str("audio"), plexAudio),
		Subtitle:         firstOr(o, "None", plexSubtitle...),
		Location:         firstOr(o, "", plexLocation...),
		IP:               firstOr(o, "", plexIP...),
		Bandwidth:        bw,
		Transcoding:      models.Bool(transcoding),
		Live:             mediaType == "live" || firstOr(o, false, flag("live")),
	}
	s.Quality = firstOr(o, bandwidth.QualityLabel(firstOr(o, "", plexResolution...), bw), str("quality"))

	if mediaType == "episode" {
		s.Season = intPtr(first(o, num("parentIndex")))
		s.EpisodeNumber = intPtr(first(o, num("index")))
	}
	return s
}

// plexPartTranscodes is true iff any Media[].Part[].decision is "transcode".
func plexPartTranscodes(o object) bool {
	for _, media := range asList(o["Media"]) {
		for _, part := range asList(lookup(media, "Part")) {
			if d, ok := asString(lookup(part, "decision")); ok && strings.EqualFold(d, "transcode") {
				return true
			}
		}
	}
	return false
}

func plexDecisionLabel(transcoding bool) string {
	if transcoding {
		return "Transcode"
	}
	return "Direct Play"
}

// plexPosterRef prefers season, then show artwork for episodes.
func plexPosterRef(o object, mediaType string) string {
	if p, ok := asString(o["poster"]); ok {
		return p
	}
	if mediaType == "episode" {
		return firstOr(o, "", str("parentThumb"), str("grandparentThumb"), str("thumb"))
	}
	return firstOr(o, "", str("thumb"))
}

// plexStreamOf finds the first stream of streamType in the first part.
func plexStreamOf(o object, streamType float64) (object, bool) {
	for _, st := range asList(lookup(o, "Media", "0", "Part", "0", "Stream")) {
		so, ok := asObject(st)
		if !ok {
			continue
		}
		if t, ok := asNumber(so["streamType"]); ok && t == streamType {
			return so, true
		}
	}
	return nil, false
}

func plexStreamField(streamType float64, field string) extractor[string] {
	return func(o object) (string, bool) {
		st, ok := plexStreamOf(o, streamType)
		if !ok {
			return "", false
		}
		return asText(st[field])
	}
}

func plexVideo(o object) (string, bool) {
	if v, ok := asObject(lookup(o, "Video", "0")); ok {
		d := describe(field(v, "decision"), field(v, "codec"), field(v, "resolution"))
		return d, d != ""
	}
	if st, ok := plexStreamOf(o, plexStreamVideo); ok {
		decision := firstOr(st, field(o, "Media", "0", "Part", "0", "decision"), str("decision"))
		d := describe(decision, field(st, "codec"), field(o, "Media", "0", "videoResolution"))
		return d, d != ""
	}
	return "", false
}

func plexAudio(o object) (string, bool) {
	a, ok := asObject(lookup(o, "Audio", "0"))
	if !ok {
		a, ok = plexStreamOf(o, plexStreamAudio)
	}
	if !ok {
		return "", false
	}
	d := describe(field(a, "decision"), field(a, "language"), field(a, "codec"), field(a, "channels"))
	return d, d != ""
}

// field reads a string or number at keys, "" when absent.
func field(o object, keys ...string) string {
	s, _ := asText(lookup(o, keys...))
	return s
}
