// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package mediaserver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tomtom215/warden/internal/rules"
)

// PlexController talks to a Plex Media Server.
type PlexController struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ Controller = (*PlexController)(nil)

// Type returns rules.ServerTypePlex.
func (p *PlexController) Type() rules.ServerType {
	return rules.ServerTypePlex
}

// Terminate stops a session. Plex shows reason to the user.
func (p *PlexController) Terminate(ctx context.Context, sessionKey, reason string) error {
	if reason == "" {
		reason = DefaultReason
	}
	query := url.Values{}
	query.Set("sessionId", sessionKey)
	query.Set("reason", reason)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/status/sessions/terminate?"+query.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Plex-Token", p.token)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("plex terminate request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("plex terminate: %w", err)
	}
	return nil
}

// SendMessage is not available on Plex.
func (p *PlexController) SendMessage(context.Context, string, string, string) error {
	return ErrUnsupported
}
