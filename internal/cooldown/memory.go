// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package cooldown

import (
	"context"
	"time"

	"github.com/tomtom215/warden/internal/cache"
)

// MemoryStore keeps windows in a process-local TTL cache. Windows are lost
// on restart.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: cache.New(time.Minute)}
}

// NewMemoryStoreWithCache wraps an existing cache.
func NewMemoryStoreWithCache(c *cache.Cache) *MemoryStore {
	return &MemoryStore{cache: c}
}

// Check implements Store.
func (s *MemoryStore) Check(_ context.Context, key string) (bool, error) {
	start := time.Now()
	_, ok := s.cache.Get(key)
	observe(BackendMemory, "check", start, nil)
	return ok, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, minutes int) error {
	if minutes <= 0 {
		return nil
	}
	start := time.Now()
	s.cache.SetWithTTL(key, struct{}{}, window(minutes))
	observe(BackendMemory, "set", start, nil)
	return nil
}

// Close stops the cache sweeper.
func (s *MemoryStore) Close() error {
	s.cache.Close()
	return nil
}
