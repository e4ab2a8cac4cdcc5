// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps windows in Redis so every replica sees the same state.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store on client. Keys are written as
// "<prefix>:<key>"; an empty prefix writes keys unchanged.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Check implements Store.
func (s *RedisStore) Check(ctx context.Context, key string) (active bool, err error) {
	start := time.Now()
	defer func() { observe(BackendRedis, "check", start, err) }()

	n, err := s.client.Exists(ctx, prefixed(s.prefix, key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, minutes int) (err error) {
	if minutes <= 0 {
		return nil
	}
	start := time.Now()
	defer func() { observe(BackendRedis, "set", start, err) }()

	if err := s.client.Set(ctx, prefixed(s.prefix, key), time.Now().UTC().Format(time.RFC3339), window(minutes)).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping verifies the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
