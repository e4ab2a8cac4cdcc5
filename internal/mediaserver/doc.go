// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

/*
Package mediaserver stops playback and messages clients on the media servers
warden enforces rules for.

Each server type has a Controller:

  - Plex: GET /status/sessions/terminate?sessionId=&reason= with X-Plex-Token.
    Plex has no client messaging endpoint, so SendMessage returns ErrUnsupported
    and the message is carried as the termination reason instead.
  - Jellyfin and Emby: POST /Sessions/{key}/Playing/Stop and
    POST /Sessions/{key}/Message with X-Emby-Token.

The Registry maps server ids to controllers, each wrapped in a circuit
breaker, and resolves session ids to their server and session key through a
SessionLocator (the DuckDB sessions table in production).
*/
package mediaserver
