// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

/*
Package supervisor runs warden's long-lived services under a suture v4 tree.

	RootSupervisor ("warden")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   └── MigrationService (one shot, when migration.run_on_startup)
	├── MessagingSupervisor ("messaging-layer")
	│   └── RouterService (when nats.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A failing router is restarted with backoff without touching the ops HTTP
server, so /healthz keeps answering while NATS is unreachable.

Supervisor events are logged through sutureslog, fed by
logging.NewSlogLogger so they land in the same zerolog stream as
everything else.
*/
package supervisor
