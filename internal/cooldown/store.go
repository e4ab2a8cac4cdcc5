// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

// Package cooldown stores action cooldown windows.
//
// A window is a key with a TTL: while the key exists the action is on
// cooldown. Three backends are provided. MemoryStore is process-local,
// BadgerStore survives restarts on one node and RedisStore is shared by
// every replica.
package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/warden/internal/metrics"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Store checks and opens cooldown windows.
type Store interface {
	// Check reports whether key is inside an open window.
	Check(ctx context.Context, key string) (bool, error)

	// Set opens a window of the given length. A non-positive length is a
	// no-op.
	Set(ctx context.Context, key string, minutes int) error
}

func window(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}

// observe records the latency of one backend call.
func observe(backend, op string, start time.Time, err error) {
	metrics.RecordStoreOperation("cooldown_"+backend, op, start, err)
}

func prefixed(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", prefix, key)
}
