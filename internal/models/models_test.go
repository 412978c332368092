// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package models

import "testing"

func TestBackendDescriptor_EffectiveKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind BackendKind
		want BackendKind
	}{
		{"plex", KindPlex},
		{"Jellyfin", KindJellyfin},
		{"EMBY", KindEmby},
		{"generic", KindGeneric},
		{"", KindGeneric},
		{"kodi", KindGeneric},
	}
	for _, tt := range tests {
		d := BackendDescriptor{Kind: tt.kind}
		if got := d.EffectiveKind(); got != tt.want {
			t.Errorf("EffectiveKind(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestBackendDescriptor_EffectiveTokenPlacement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		d    BackendDescriptor
		want TokenPlacement
	}{
		{"plex default", BackendDescriptor{Kind: KindPlex}, TokenInQuery},
		{"plex header override", BackendDescriptor{Kind: KindPlex, TokenLocation: TokenInHeader}, TokenInHeader},
		{"jellyfin default", BackendDescriptor{Kind: KindJellyfin}, TokenInHeader},
		{"emby query override", BackendDescriptor{Kind: KindEmby, TokenLocation: TokenInQuery}, TokenInQuery},
		{"generic default", BackendDescriptor{}, TokenInHeader},
		{"unknown placement", BackendDescriptor{Kind: KindPlex, TokenLocation: "cookie"}, TokenInQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.d.EffectiveTokenPlacement(); got != tt.want {
				t.Errorf("EffectiveTokenPlacement() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBackendDescriptor_DisplayName(t *testing.T) {
	t.Parallel()

	d := BackendDescriptor{BaseURL: "http://10.0.0.2:32400"}
	if got := d.DisplayName(); got != "http://10.0.0.2:32400" {
		t.Errorf("DisplayName() = %q, want base URL", got)
	}
	d.Name = "Living Room"
	if got := d.DisplayName(); got != "Living Room" {
		t.Errorf("DisplayName() = %q, want Living Room", got)
	}
}

func TestNotificationID(t *testing.T) {
	t.Parallel()

	if got := NotificationID(AlertOffline, "plex-1"); got != "offline-plex-1" {
		t.Errorf("NotificationID() = %q, want offline-plex-1", got)
	}
	if got := NotificationID(AlertHighWANBandwidth, "jf"); got != "highWanBandwidth-jf" {
		t.Errorf("NotificationID() = %q, want highWanBandwidth-jf", got)
	}
}
