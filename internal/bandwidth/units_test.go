// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package bandwidth

import "testing"

func TestKbpsToMbps(t *testing.T) {
	if got := KbpsToMbps(20280); got != 20.28 {
		t.Errorf("KbpsToMbps(20280) = %v, want 20.28", got)
	}
}

func TestBitsToMbps(t *testing.T) {
	if got := BitsToMbps(8_000_000); got != 8 {
		t.Errorf("BitsToMbps(8000000) = %v, want 8", got)
	}
}

func TestCorrectKbps(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"raw kbps", 20280, 20.28},
		{"already mbps", 8, 8},
		{"boundary kept", 1000, 1000},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CorrectKbps(tt.in); got != tt.want {
				t.Errorf("CorrectKbps(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLeading(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"12.5 Mbps", 12.5, true},
		{"  8", 8, true},
		{"20280kbps", 20280, true},
		{"-3", -3, true},
		{"7.", 7, true},
		{"Mbps 12", 0, false},
		{"", 0, false},
		{".", 0, false},
		{"1.2.3", 1.2, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLeading(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseLeading(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
