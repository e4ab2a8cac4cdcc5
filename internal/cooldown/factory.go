// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package cooldown

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClosableStore is a Store owning resources that must be released.
type ClosableStore interface {
	Store
	io.Closer
}

// Options selects and configures a backend.
type Options struct {
	Backend       string
	KeyPrefix     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	BadgerPath    string
}

// Open creates the backend named by opts.Backend. An empty backend means
// memory. The redis backend is pinged before it is returned.
func Open(ctx context.Context, opts Options) (ClosableStore, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil

	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		store := NewRedisStore(client, opts.KeyPrefix)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			client.Close() //nolint:errcheck
			return nil, fmt.Errorf("connect redis at %s: %w", opts.RedisAddr, err)
		}
		return store, nil

	case BackendBadger:
		return OpenBadgerStore(opts.BadgerPath, opts.KeyPrefix)

	default:
		return nil, fmt.Errorf("unknown cooldown backend %q", opts.Backend)
	}
}
