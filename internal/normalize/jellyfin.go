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

// ticksPerSecond is the Jellyfin/Emby time unit (100ns ticks).
const ticksPerSecond = 10_000_000

var (
	jellyfinPlatform  = []extractor[string]{str("Client"), str("DeviceName")}
	jellyfinPlayer    = []extractor[string]{str("DeviceName"), str("Client")}
	jellyfinContainer = []extractor[string]{str("NowPlayingItem", "Container"), str("TranscodingInfo", "Container")}
	jellyfinEpisode   = []extractor[string]{
		str("NowPlayingItem", "EpisodeTitle"),
		when(present("NowPlayingItem", "SeriesName"), str("NowPlayingItem", "Name")),
	}

	// Stream label: play method, then the transcoding flag, then free text.
	jellyfinStream = []extractor[string]{
		str("PlayState", "PlayMethod"),
		func(o object) (string, bool) {
			direct, ok := asBool(lookup(o, "TranscodingInfo", "IsVideoDirect"))
			if !ok {
				return "", false
			}
			if direct {
				return "DirectPlay", true
			}
			return "Transcode", true
		},
		str("state"),
	}

	jellyfinLocation = []extractor[string]{
		func(o object) (string, bool) {
			local, ok := o["IsInLocalNetwork"].(bool)
			return lanWAN(local), ok
		},
		when[string](present("RemoteEndPoint"), func(object) (string, bool) { return models.LocationWAN, true }),
	}
)

// isJellyfinEntry reports whether o is an active Jellyfin/Emby session.
func isJellyfinEntry(o object) bool {
	return o != nil && o["NowPlayingItem"] != nil && o["PlayState"] != nil
}

// hasJellyfinShape reports whether o looks like any /Sessions entry,
// idle clients included.
func hasJellyfinShape(o object) bool {
	for _, key := range []string{"NowPlayingItem", "PlayState", "UserName", "DeviceName"} {
		if _, ok := o[key]; ok {
			return true
		}
	}
	return false
}

func (m mapper) jellyfinSessions(list []any) []models.Session {
	out := make([]models.Session, 0, len(list))
	for _, e := range list {
		o, ok := asObject(e)
		if !ok || !isJellyfinEntry(o) {
			continue
		}
		out = append(out, m.jellyfinSession(o))
	}
	return out
}

func (m mapper) jellyfinSession(o object) models.Session {
	item, _ := asObject(o["NowPlayingItem"])
	streams := asList(item["MediaStreams"])
	video, hasVideo := mediaStream(streams, "Video")
	audio, hasAudio := mediaStream(streams, "Audio")
	subtitle, hasSubtitle := mediaStream(streams, "Subtitle", "Subtitles")

	runTicks, _ := asNumber(item["RunTimeTicks"])
	posTicks, _ := asNumber(lookup(o, "PlayState", "PositionTicks"))

	bw := firstOr(o, 0,
		numeric("bandwidth"),
		scaled(positive(numeric("TranscodingInfo", "Bitrate")), 1_000_000),
		func(object) (float64, bool) {
			if !hasVideo {
				return 0, false
			}
			return first(video, scaled(positive(num("BitRate")), 1_000_000), scaled(positive(num("Bitrate")), 1_000_000))
		},
	)
	if bw < 0 {
		bw = 0
	}

	itemType := strings.ToLower(firstOr(item, "", str("Type")))
	s := models.Session{
		User:             firstOr(o, "Unknown", str("UserName")),
		Title:            firstOr(item, "Idle", str("Name")),
		GrandparentTitle: firstOr(item, "", str("SeriesName")),
		Episode:          firstOr(o, "", jellyfinEpisode...),
		Channel:          firstOr(item, "", str("ChannelName")),
		Year:             intPtr(first(item, num("ProductionYear"))),
		Platform:         firstOr(o, "", jellyfinPlatform...),
		Player:           firstOr(o, "", jellyfinPlayer...),
		Product:          firstOr(o, "", str("Client")),
		State:            jellyfinState(o),
		Stream:           firstOr(o, "", jellyfinStream...),
		Poster:           m.poster(jellyfinPosterRef(item)),
		Duration:         wholeSeconds(runTicks, ticksPerSecond),
		ViewOffset:       wholeSeconds(posTicks, ticksPerSecond),
		Progress:         progressPercent(posTicks, runTicks, 0, false),
		Container:        firstOr(o, "", jellyfinContainer...),
		Subtitle:         "None",
		Location:         firstOr(o, "", jellyfinLocation...),
		IP:               firstOr(o, "", str("RemoteEndPoint")),
		Bandwidth:        bw,
		Transcoding:      jellyfinTranscoding(o),
		Live:             itemType == "tvchannel" || itemType == "livetvchannel",
	}

	resolution := ""
	if hasVideo {
		resolution = dimensions(video)
		s.Video = strings.TrimSpace(firstOr(video, "", str("Codec"), str("codec")) + prefixed(" ", resolution))
	}
	if resolution == "" {
		resolution = dimensions(asObjectOrNil(o["TranscodingInfo"]))
	}
	s.Quality = bandwidth.QualityLabel(resolution, bw)

	if hasAudio {
		s.Audio = strings.TrimSpace(
			firstOr(audio, "", str("Codec"), str("codec")) +
				prefixed(" ", firstOr(audio, "", str("Language"), str("language"))) +
				suffixed(firstOr(audio, "", text("Channels"), text("channels")), "ch", " "),
		)
	}
	if hasSubtitle {
		s.Subtitle = firstOr(subtitle, "Subtitle", str("Language"), str("language"), str("DisplayTitle"))
	}

	if itemType == "episode" || s.GrandparentTitle != "" {
		s.Season = intPtr(first(item, num("ParentIndexNumber")))
		s.EpisodeNumber = intPtr(first(item, num("IndexNumber")))
	}
	return s
}

// jellyfinState reports paused/playing when the vendor says, else the play method.
func jellyfinState(o object) string {
	if paused, ok := asBool(lookup(o, "PlayState", "IsPaused")); ok {
		if paused {
			return "paused"
		}
		return "playing"
	}
	return firstOr(o, "", str("PlayState", "PlayMethod"))
}

// jellyfinTranscoding is known only when the vendor states the play method
// or the video-direct flag.
func jellyfinTranscoding(o object) *bool {
	if method, ok := asString(lookup(o, "PlayState", "PlayMethod")); ok {
		return models.Bool(strings.EqualFold(method, "transcode"))
	}
	if direct, ok := asBool(lookup(o, "TranscodingInfo", "IsVideoDirect")); ok {
		return models.Bool(!direct)
	}
	return nil
}

// jellyfinPosterRef prefers series artwork for episodes.
func jellyfinPosterRef(item object) string {
	if seriesID, ok := asText(item["SeriesId"]); ok {
		if _, tagged := asString(item["SeriesPrimaryImageTag"]); tagged {
			return "/Items/" + seriesID + "/Images/Primary"
		}
	}
	if id, ok := asText(item["Id"]); ok {
		if _, tagged := asString(lookup(item, "ImageTags", "Primary")); tagged {
			return "/Items/" + id + "/Images/Primary"
		}
	}
	return ""
}

// mediaStream returns the first stream whose Type matches one of types.
func mediaStream(streams []any, types ...string) (object, bool) {
	for _, st := range streams {
		so, ok := asObject(st)
		if !ok {
			continue
		}
		t, _ := asString(so["Type"])
		for _, want := range types {
			if strings.EqualFold(t, want) {
				return so, true
			}
		}
	}
	return nil, false
}

// dimensions renders "WxH" when both are known.
func dimensions(o object) string {
	if o == nil {
		return ""
	}
	w := firstOr(o, "", text("Width"), text("width"))
	h := firstOr(o, "", text("Height"), text("height"))
	if w == "" || h == "" {
		return ""
	}
	return w + "x" + h
}

func asObjectOrNil(v any) object {
	o, _ := asObject(v)
	return o
}

func prefixed(prefix, s string) string {
	if s == "" {
		return ""
	}
	return prefix + s
}

func suffixed(s, suffix, prefix string) string {
	if s == "" {
		return ""
	}
	return prefix + s + suffix
}
