// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

// Package testinfra provides container fixtures for integration tests.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./...
//
// # Redis
//
// NewRedisContainer starts a throwaway Redis for the shared cooldown store:
//
//	func TestRedisCooldown(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    redis, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    testinfra.CleanupContainer(t, redis)
//
//	    client := goredis.NewClient(&goredis.Options{Addr: redis.Addr})
//	    store := cooldown.NewRedisStore(client, "warden")
//	    ...
//	}
package testinfra
