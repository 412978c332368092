// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

/*
Package normalize turns raw media-server session payloads into the canonical
models.Session list and a per-backend models.BackendSummary.

# Payload shapes

Dispatch is by shape, not by the configured vendor kind:

  - An object with a MediaContainer envelope is Plex.
  - A non-empty list whose first element has state/media_title is a flat
    custom feed; only entries whose state is "playing" are kept.
  - A non-empty list whose first element has NowPlayingItem/PlayState is
    Jellyfin or Emby; every entry carrying both is kept.
  - Anything else yields no sessions and a zero summary, labelled with the
    payload's type tag ("object", "string", "number", "boolean", "unknown").

# Field chains

Every canonical field is read through an ordered chain of typed extractors;
the first one that yields a non-empty value wins. Chains live next to the
mapper for each shape so the fallback order can be read and tested field by
field.

Normalization is pure: no I/O, no shared state, and the same payload always
produces the same result. It never returns an error; missing or mistyped
fields degrade to "", 0 or unknown.
*/
package normalize
