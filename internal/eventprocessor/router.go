// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/warden/internal/cache"
)

// Router wraps the Watermill router with warden's middleware stack.
type Router struct {
	router  *message.Router
	config  RouterConfig
	logger  watermill.LoggerAdapter
	dedup   *Deduplicator
	running atomic.Bool
}

// Deduplicator remembers message keys for a TTL. It implements
// middleware.ExpiringKeyRepository.
type Deduplicator struct {
	mu    sync.Mutex
	cache *cache.Cache
}

var _ middleware.ExpiringKeyRepository = (*Deduplicator)(nil)

// NewDeduplicator creates a deduplicator whose keys expire after ttl.
func NewDeduplicator(ttl time.Duration) *Deduplicator {
	return &Deduplicator{cache: cache.NewWithCleanup(ttl, ttl)}
}

// IsDuplicate reports whether key was seen within the TTL and remembers it.
func (d *Deduplicator) IsDuplicate(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.cache.Get(key); ok {
		return true, nil
	}
	d.cache.Set(key, struct{}{})
	return false, nil
}

// Close stops the expiry sweeper.
func (d *Deduplicator) Close() {
	d.cache.Close()
}

// NewRouter creates a router. Middleware runs outer to inner: recoverer,
// poison queue, retry, throttle, deduplicator. poisonPublisher may be nil.
func NewRouter(cfg RouterConfig, poisonPublisher message.Publisher, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}
	r := &Router{router: wmRouter, config: cfg, logger: logger}

	wmRouter.AddMiddleware(middleware.Recoverer)

	if poisonPublisher != nil && cfg.PoisonQueueTopic != "" {
		poisonQueue, err := middleware.PoisonQueue(poisonPublisher, cfg.PoisonQueueTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	}

	if cfg.RetryMaxRetries > 0 {
		retry := middleware.Retry{
			MaxRetries:      cfg.RetryMaxRetries,
			InitialInterval: cfg.RetryInitialInterval,
			MaxInterval:     cfg.RetryMaxInterval,
			Multiplier:      cfg.RetryMultiplier,
			Logger:          logger,
		}
		wmRouter.AddMiddleware(retry.Middleware)
	}

	if cfg.ThrottlePerSecond > 0 {
		throttle := middleware.NewThrottle(cfg.ThrottlePerSecond, time.Second)
		wmRouter.AddMiddleware(throttle.Middleware)
	}

	if cfg.DeduplicationTTL > 0 {
		r.dedup = NewDeduplicator(cfg.DeduplicationTTL)
		dedup := middleware.Deduplicator{
			KeyFactory: func(msg *message.Message) (string, error) {
				return msg.UUID, nil
			},
			Repository: r.dedup,
		}
		wmRouter.AddMiddleware(dedup.Middleware)
	}

	return r, nil
}

// AddHandler registers handler on subscribeTopic. Messages it returns are
// published to publishTopic.
func (r *Router) AddHandler(
	name string,
	subscribeTopic string,
	subscriber message.Subscriber,
	publishTopic string,
	publisher message.Publisher,
	handler message.HandlerFunc,
) {
	r.router.AddHandler(name, subscribeTopic, subscriber, publishTopic, publisher, handler)
}

// Run blocks until ctx is cancelled or Close is called.
func (r *Router) Run(ctx context.Context) error {
	r.running.Store(true)
	defer r.running.Store(false)
	return r.router.Run(ctx)
}

// Running returns a channel closed once handlers are running.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// IsRunning reports whether Run is active.
func (r *Router) IsRunning() bool {
	return r.running.Load()
}

// Close stops the router, waiting up to CloseTimeout for in-flight messages.
func (r *Router) Close() error {
	if r.dedup != nil {
		r.dedup.Close()
	}
	return r.router.Close()
}
