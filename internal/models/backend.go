// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package models

import "strings"

// BackendKind is the vendor family of a monitored media server.
type BackendKind string

const (
	KindPlex     BackendKind = "plex"
	KindJellyfin BackendKind = "jellyfin"
	KindEmby     BackendKind = "emby"
	KindGeneric  BackendKind = "generic"
)

// TokenPlacement selects where the credential travels on a backend request.
type TokenPlacement string

const (
	TokenInHeader TokenPlacement = "header"
	TokenInQuery  TokenPlacement = "query"
)

// BackendDescriptor is one configured backend. Descriptors are owned by the
// registry and are read-only to everything else.
type BackendDescriptor struct {
	ID            string         `json:"id" koanf:"id" validate:"required,max=128,backend_id"`
	Name          string         `json:"name,omitempty" koanf:"name"`
	Kind          BackendKind    `json:"type,omitempty" koanf:"type" validate:"omitempty,oneof=plex jellyfin emby generic"`
	BaseURL       string         `json:"baseUrl" koanf:"base_url" validate:"required,url"`
	Token         string         `json:"token,omitempty" koanf:"token"`
	TokenLocation TokenPlacement `json:"tokenLocation,omitempty" koanf:"token_location" validate:"omitempty,oneof=header query"`
	APIPath       string         `json:"apiPath,omitempty" koanf:"api_path"`
	Disabled      bool           `json:"disabled,omitempty" koanf:"disabled"`
}

// Enabled reports whether the backend should be polled.
func (d *BackendDescriptor) Enabled() bool {
	return !d.Disabled
}

// EffectiveKind returns the vendor kind, defaulting to generic.
func (d *BackendDescriptor) EffectiveKind() BackendKind {
	switch BackendKind(strings.ToLower(string(d.Kind))) {
	case KindPlex:
		return KindPlex
	case KindJellyfin:
		return KindJellyfin
	case KindEmby:
		return KindEmby
	default:
		return KindGeneric
	}
}

// DisplayName returns the configured name, falling back to the base URL.
func (d *BackendDescriptor) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.BaseURL
}

// EffectiveTokenPlacement returns the configured placement or the vendor
// default: query for Plex, header for everything else.
func (d *BackendDescriptor) EffectiveTokenPlacement() TokenPlacement {
	switch d.TokenLocation {
	case TokenInHeader, TokenInQuery:
		return d.TokenLocation
	}
	if d.EffectiveKind() == KindPlex {
		return TokenInQuery
	}
	return TokenInHeader
}
