// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

/*
Package config loads warden's configuration with koanf.

Sources are layered, later ones overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file: $CONFIG_PATH, ./config.yaml, ./config.yml or
    /etc/warden/config.yaml
 3. Environment variables listed in envMappings

Sections:

  - logging: level, format, caller
  - server: HTTP host, port and timeouts for the ops endpoints
  - database: DuckDB path, threads, memory limit
  - cooldown: backend (memory, redis, badger) and its connection settings
  - trust: baseline trust score
  - notifications: Discord and generic webhook delivery
  - media_servers: servers warden can terminate and message on (file only)
  - nats: trigger transport
  - migration: legacy rule backfill

Example:

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
*/
package config
