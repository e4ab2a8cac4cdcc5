// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/warden/internal/breaker"
	"github.com/tomtom215/warden/internal/enforcement"
	"github.com/tomtom215/warden/internal/rules"
)

// Notifier delivers a notification to one channel.
type Notifier interface {
	Channel() rules.NotificationChannel
	Send(ctx context.Context, n enforcement.Notification) error
}

const defaultTimeout = 10 * time.Second

// poster is the HTTP delivery path shared by the webhook-style notifiers.
type poster struct {
	client  *http.Client
	limiter *rate.Limiter
	breaker *breaker.Breaker
	headers map[string]string
}

func newPoster(name string, minInterval time.Duration, headers map[string]string) *poster {
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return &poster{
		client:  &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		breaker: breaker.New(name, breaker.Settings{}),
		headers: h,
	}
}

// postJSON waits for the limiter and posts payload through the breaker.
func (p *poster) postJSON(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	return p.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range p.headers {
			req.Header.Set(k, v)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return nil
	})
}
