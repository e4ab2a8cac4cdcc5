// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package mediaserver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/tomtom215/warden/internal/rules"
)

const messageTimeoutMs = 10000

// EmbyController talks to Jellyfin and Emby, which share the session API.
type EmbyController struct {
	serverType rules.ServerType
	baseURL    string
	token      string
	client     *http.Client
}

var _ Controller = (*EmbyController)(nil)

type messageCommand struct {
	Header    string `json:"Header"`
	Text      string `json:"Text"`
	TimeoutMs int    `json:"TimeoutMs"`
}

// Type returns jellyfin or emby.
func (e *EmbyController) Type() rules.ServerType {
	return e.serverType
}

// Terminate sends the stop command. Jellyfin has no reason field, so a
// reason is delivered by the Registry as a message beforehand.
func (e *EmbyController) Terminate(ctx context.Context, sessionKey, _ string) error {
	if err := e.post(ctx, "/Sessions/"+url.PathEscape(sessionKey)+"/Playing/Stop", nil); err != nil {
		return fmt.Errorf("%s stop session: %w", e.serverType, err)
	}
	return nil
}

// SendMessage displays a message on the client.
func (e *EmbyController) SendMessage(ctx context.Context, sessionKey, header, text string) error {
	cmd := messageCommand{Header: header, Text: text, TimeoutMs: messageTimeoutMs}
	if err := e.post(ctx, "/Sessions/"+url.PathEscape(sessionKey)+"/Message", cmd); err != nil {
		return fmt.Errorf("%s send message: %w", e.serverType, err)
	}
	return nil
}

func (e *EmbyController) post(ctx context.Context, endpoint string, payload any) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Emby-Token", e.token)
	req.Header.Set("X-Emby-Client", "Warden")
	req.Header.Set("X-Emby-Device-Name", "Warden")
	req.Header.Set("X-Emby-Device-Id", "warden")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	return checkStatus(resp)
}
