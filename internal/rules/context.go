// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package rules

import "time"

// ServerType identifies the media server implementation.
type ServerType string

const (
	ServerTypePlex     ServerType = "plex"
	ServerTypeJellyfin ServerType = "jellyfin"
	ServerTypeEmby     ServerType = "emby"
)

// Server is a media server instance.
type Server struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Type ServerType `json:"type"`
}

// ServerUser is an account on one media server.
type ServerUser struct {
	ID         string `json:"id"`
	ServerID   string `json:"server_id"`
	Username   string `json:"username"`
	TrustScore int    `json:"trust_score"`
}

// Session is a playback session as seen by the evaluator.
type Session struct {
	ID               string    `json:"id"`
	SessionKey       string    `json:"session_key"`
	ServerID         string    `json:"server_id"`
	ServerUserID     string    `json:"server_user_id"`
	State            string    `json:"state,omitempty"` // playing, paused, stopped
	MediaType        string    `json:"media_type,omitempty"`
	MediaTitle       string    `json:"media_title,omitempty"`
	GrandparentTitle string    `json:"grandparent_title,omitempty"`
	IPAddress        string    `json:"ip_address,omitempty"`
	Device           string    `json:"device,omitempty"`
	Platform         string    `json:"platform,omitempty"`
	Player           string    `json:"player,omitempty"`
	IsTranscode      bool      `json:"is_transcode,omitempty"`
	GeoCity          string    `json:"geo_city,omitempty"`
	GeoCountry       string    `json:"geo_country,omitempty"`
	StartedAt        time.Time `json:"started_at"`
}

// EvaluationContext bundles everything one evaluation operates on. It is
// assembled and owned by the upstream evaluator; the engine only reads it.
type EvaluationContext struct {
	Session        Session    `json:"session"`
	Server         Server     `json:"server"`
	ServerUser     ServerUser `json:"server_user"`
	Rule           Rule       `json:"rule"`
	ActiveSessions []Session  `json:"active_sessions"`
	RecentSessions []Session  `json:"recent_sessions"`
}
