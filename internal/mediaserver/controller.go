// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package mediaserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/warden/internal/rules"
)

var (
	// ErrUnsupported is returned by controllers for operations the server
	// API does not offer.
	ErrUnsupported = errors.New("operation not supported by media server")
	// ErrUnknownServer is returned when no controller is registered for a
	// server id.
	ErrUnknownServer = errors.New("unknown media server")
	// ErrUnknownSession is returned when a session id cannot be located.
	ErrUnknownSession = errors.New("unknown session")
)

// DefaultReason is shown to the user when a stream is stopped without a
// message.
const DefaultReason = "This stream was stopped by the server administrator."

// Controller drives playback on one media server.
type Controller interface {
	Type() rules.ServerType
	// Terminate stops the session identified by the server's own key.
	Terminate(ctx context.Context, sessionKey, reason string) error
	// SendMessage shows text on the client playing sessionKey.
	SendMessage(ctx context.Context, sessionKey, header, text string) error
}

// ServerConfig describes one media server.
type ServerConfig struct {
	ID      string           `koanf:"id" validate:"required"`
	Type    rules.ServerType `koanf:"type" validate:"required,oneof=plex jellyfin emby"`
	URL     string           `koanf:"url" validate:"required,url"`
	Token   string           `koanf:"token" validate:"required"`
	Timeout time.Duration    `koanf:"timeout"`
}

// NewController builds the controller for cfg.Type.
func NewController(cfg ServerConfig) (Controller, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	baseURL := strings.TrimSuffix(cfg.URL, "/")

	switch cfg.Type {
	case rules.ServerTypePlex:
		return &PlexController{baseURL: baseURL, token: cfg.Token, client: client}, nil
	case rules.ServerTypeJellyfin, rules.ServerTypeEmby:
		return &EmbyController{serverType: cfg.Type, baseURL: baseURL, token: cfg.Token, client: client}, nil
	default:
		return nil, fmt.Errorf("server %q: unsupported type %q", cfg.ID, cfg.Type)
	}
}

// checkStatus accepts 200 and 204 and turns anything else into an error
// carrying a bounded slice of the body.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil {
		return fmt.Errorf("unexpected status %d (failed to read body: %w)", resp.StatusCode, err)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
