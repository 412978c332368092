// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package normalize

import (
	"strings"
	"testing"

	"github.com/tomtom215/omnistream/internal/models"
)

func TestJellyfin_MockTicks(t *testing.T) {
	t.Parallel()

	body := `[{"UserName":"charlie","NowPlayingItem":{"Name":"Inception","RunTimeTicks":145000000000},"PlayState":{"PositionTicks":72500000000}}]`
	res := New(Options{}).NormalizeBytes([]byte(body), &models.BackendDescriptor{ID: "jf"})

	if res.Kind != KindJellyfinEmby {
		t.Fatalf("Kind = %q, want %q", res.Kind, KindJellyfinEmby)
	}
	if len(res.Sessions) != 1 {
		t.Fatalf("len(Sessions) = %d, want 1", len(res.Sessions))
	}
	s := res.Sessions[0]
	if s.Duration != 14500 || s.ViewOffset != 7250 || s.Progress != 50 {
		t.Errorf("duration/viewOffset/progress = %d/%d/%d, want 14500/7250/50", s.Duration, s.ViewOffset, s.Progress)
	}
	if s.User != "charlie" || s.Title != "Inception" {
		t.Errorf("user/title = %q/%q", s.User, s.Title)
	}
	if s.Transcoding != nil {
		t.Errorf("Transcoding = %v, want unknown", *s.Transcoding)
	}
	if res.Summary.DirectPlays != 1 {
		t.Errorf("DirectPlays = %d, want 1", res.Summary.DirectPlays)
	}
}

func TestJellyfin_ProgressClampAtEnd(t *testing.T) {
	t.Parallel()

	body := `[{"NowPlayingItem":{"RunTimeTicks":145000000000},"PlayState":{"PositionTicks":145000000000}}]`
	s := New(Options{}).NormalizeBytes([]byte(body), &models.BackendDescriptor{ID: "jf"}).Sessions[0]
	if s.Progress != 100 {
		t.Errorf("Progress = %d, want 100", s.Progress)
	}

	body = `[{"NowPlayingItem":{"RunTimeTicks":100},"PlayState":{"PositionTicks":250}}]`
	s = New(Options{}).NormalizeBytes([]byte(body), &models.BackendDescriptor{ID: "jf"}).Sessions[0]
	if s.Progress != 100 {
		t.Errorf("overrun Progress = %d, want 100", s.Progress)
	}
}

func TestJellyfin_Fixture(t *testing.T) {
	t.Parallel()

	res := New(Options{}).NormalizeBytes(loadFixture(t, "jellyfin_sessions.json"), &models.BackendDescriptor{ID: "jf-1"})
	if len(res.Sessions) != 2 {
		t.Fatalf("len(Sessions) = %d, want 2 (idle entry skipped)", len(res.Sessions))
	}

	ep := res.Sessions[0]
	checks := []struct {
		field, got, want string
	}{
		{"User", ep.User, "charlie"},
		{"Title", ep.Title, "Ozymandias"},
		{"GrandparentTitle", ep.GrandparentTitle, "Breaking Bad"},
		{"Episode", ep.Episode, "Ozymandias"},
		{"Platform", ep.Platform, "Jellyfin Web"},
		{"Player", ep.Player, "Firefox"},
		{"State", ep.State, "playing"},
		{"Stream", ep.Stream, "Transcode"},
		{"Poster", ep.Poster, "/api/v1/artwork/jf-1?path=%2FItems%2Fs1%2FImages%2FPrimary"},
		{"Container", ep.Container, "mkv"},
		{"Video", ep.Video, "hevc 1920x1080"},
		{"Audio", ep.Audio, "eac3 eng 6ch"},
		{"Subtitle", ep.Subtitle, "fre"},
		{"Location", ep.Location, models.LocationWAN},
		{"IP", ep.IP, "198.51.100.4"},
		{"Quality", ep.Quality, "1080p (6.5 Mbps)"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("episode %s = %q, want %q", c.field, c.got, c.want)
		}
	}
	if ep.Transcoding == nil || !*ep.Transcoding {
		t.Error("episode Transcoding should be true")
	}
	if !approxEqual(ep.Bandwidth, 6.5) {
		t.Errorf("episode Bandwidth = %v, want 6.5 from TranscodingInfo.Bitrate", ep.Bandwidth)
	}
	if ep.Duration != 2820 || ep.ViewOffset != 1410 || ep.Progress != 50 {
		t.Errorf("episode timing = %d/%d/%d", ep.Duration, ep.ViewOffset, ep.Progress)
	}
	if ep.Season == nil || *ep.Season != 5 || ep.EpisodeNumber == nil || *ep.EpisodeNumber != 14 {
		t.Errorf("season/episode = %v/%v, want 5/14", ep.Season, ep.EpisodeNumber)
	}

	mv := res.Sessions[1]
	if mv.State != "paused" || mv.Stream != "DirectPlay" {
		t.Errorf("movie state/stream = %q/%q", mv.State, mv.Stream)
	}
	if mv.Transcoding == nil || *mv.Transcoding {
		t.Errorf("movie Transcoding = %v, want false", mv.Transcoding)
	}
	if mv.Platform != "Living Room" || mv.Location != models.LocationLAN {
		t.Errorf("movie platform/location = %q/%q", mv.Platform, mv.Location)
	}
	if !approxEqual(mv.Bandwidth, 40) || mv.Quality != "4k (40.0 Mbps)" {
		t.Errorf("movie bandwidth/quality = %v/%q", mv.Bandwidth, mv.Quality)
	}
	if mv.Poster != "/api/v1/artwork/jf-1?path=%2FItems%2Fm9%2FImages%2FPrimary" {
		t.Errorf("movie Poster = %q", mv.Poster)
	}
	if mv.Subtitle != "None" || mv.Audio != "" {
		t.Errorf("movie subtitle/audio = %q/%q", mv.Subtitle, mv.Audio)
	}

	sum := res.Summary
	if sum.Transcodes != 1 || sum.DirectPlays != 1 {
		t.Errorf("counts = %+v", sum)
	}
	if !approxEqual(sum.TotalBandwidth, 46.5) || !approxEqual(sum.WANBandwidth, 6.5) || !approxEqual(sum.LANBandwidth, 40) {
		t.Errorf("bandwidth totals = %+v", sum)
	}
}

func TestJellyfin_StreamResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		entry           string
		wantStream      string
		wantTranscoding *bool
	}{
		{"play method wins", `"PlayState":{"PlayMethod":"DirectStream"},"TranscodingInfo":{"IsVideoDirect":false}`, "DirectStream", models.Bool(false)},
		{"video direct false", `"PlayState":{},"TranscodingInfo":{"IsVideoDirect":false}`, "Transcode", models.Bool(true)},
		{"video direct true", `"PlayState":{},"TranscodingInfo":{"IsVideoDirect":true}`, "DirectPlay", models.Bool(false)},
		{"free text state", `"PlayState":{},"state":"Transcoding (hw)"`, "Transcoding (hw)", nil},
		{"nothing", `"PlayState":{}`, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			body := `[{"NowPlayingItem":{"Name":"x"},` + tt.entry + `}]`
			res := New(Options{}).NormalizeBytes([]byte(body), &models.BackendDescriptor{ID: "jf"})
			if len(res.Sessions) != 1 {
				t.Fatalf("len(Sessions) = %d, want 1", len(res.Sessions))
			}
			s := res.Sessions[0]
			if s.Stream != tt.wantStream {
				t.Errorf("Stream = %q, want %q", s.Stream, tt.wantStream)
			}
			switch {
			case tt.wantTranscoding == nil && s.Transcoding != nil:
				t.Errorf("Transcoding = %v, want unknown", *s.Transcoding)
			case tt.wantTranscoding != nil && (s.Transcoding == nil || *s.Transcoding != *tt.wantTranscoding):
				t.Errorf("Transcoding = %v, want %v", s.Transcoding, *tt.wantTranscoding)
			}
		})
	}
}

func TestJellyfin_IdleClientsFirst(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		head string
	}{
		{"play state only", `{"UserName":"idle","DeviceName":"TV","PlayState":{"CanSeek":false}}`},
		{"user only", `{"UserName":"idle","Client":"Web"}`},
		{"device only", `{"DeviceName":"Phone"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			body := `[` + tt.head + `,
				{"UserName":"charlie","NowPlayingItem":{"Name":"Arrival"},"PlayState":{"PlayMethod":"DirectPlay"}}]`
			res := New(Options{}).NormalizeBytes([]byte(body), &models.BackendDescriptor{ID: "jf"})
			if len(res.Sessions) != 1 {
				t.Fatalf("len(Sessions) = %d, want 1", len(res.Sessions))
			}
			s := res.Sessions[0]
			if s.User != "charlie" || s.Title != "Arrival" || s.Stream != "DirectPlay" {
				t.Errorf("session = %q/%q/%q", s.User, s.Title, s.Stream)
			}
			if res.Summary.DirectPlays != 1 {
				t.Errorf("DirectPlays = %d, want 1", res.Summary.DirectPlays)
			}
		})
	}
}

func TestJellyfin_BandwidthChain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry string
		want  float64
	}{
		{"explicit number", `"bandwidth":3.5,"TranscodingInfo":{"Bitrate":9000000}`, 3.5},
		{"explicit string", `"bandwidth":"7 Mbps"`, 7},
		{"transcoding bitrate", `"TranscodingInfo":{"Bitrate":9000000}`, 9},
		{"video stream bitrate", `"NowPlayingItem":{"MediaStreams":[{"Type":"Video","BitRate":2500000}]}`, 2.5},
		{"nothing", ``, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			entry := `"PlayState":{}`
			if tt.entry != "" {
				entry += "," + tt.entry
			}
			if !strings.Contains(tt.entry, "NowPlayingItem") {
				entry += `,"NowPlayingItem":{"Name":"x"}`
			}
			body := `[{` + entry + `}]`
			s := New(Options{}).NormalizeBytes([]byte(body), &models.BackendDescriptor{ID: "jf"}).Sessions[0]
			if !approxEqual(s.Bandwidth, tt.want) {
				t.Errorf("Bandwidth = %v, want %v", s.Bandwidth, tt.want)
			}
		})
	}
}

func TestJellyfin_RemoteEndpointDefaultsToWAN(t *testing.T) {
	t.Parallel()

	body := `[{"NowPlayingItem":{"Name":"x"},"PlayState":{},"RemoteEndPoint":"10.0.0.5"}]`
	s := New(Options{}).NormalizeBytes([]byte(body), &models.BackendDescriptor{ID: "jf"}).Sessions[0]
	if s.Location != models.LocationWAN || s.IP != "10.0.0.5" {
		t.Errorf("location/ip = %q/%q, want WAN/10.0.0.5", s.Location, s.IP)
	}

	body = `[{"NowPlayingItem":{"Name":"x"},"PlayState":{},"RemoteEndPoint":"10.0.0.5","IsInLocalNetwork":true}]`
	s = New(Options{}).NormalizeBytes([]byte(body), &models.BackendDescriptor{ID: "jf"}).Sessions[0]
	if s.Location != models.LocationLAN {
		t.Errorf("Location = %q, want LAN from IsInLocalNetwork", s.Location)
	}
}
