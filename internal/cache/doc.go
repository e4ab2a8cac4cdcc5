// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

/*
Package cache provides a thread-safe in-memory cache with per-entry TTL.

It backs the in-process cooldown store: each cooldown window is an entry
whose TTL is the window length, so a present entry means "on cooldown".

# Expiration

Entries expire lazily on Get and are also swept by a background goroutine
(every DefaultCleanupInterval unless configured otherwise). Close stops the
sweeper.

# Usage

	c := cache.New(time.Minute)
	defer c.Close()

	c.SetWithTTL("cooldown:r1:notify:u1", struct{}{}, 15*time.Minute)
	if _, ok := c.Get("cooldown:r1:notify:u1"); ok {
	    // still cooling down
	}

# Thread Safety

All methods are safe for concurrent use.
*/
package cache
