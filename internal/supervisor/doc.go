// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

/*
Package supervisor runs Feedcast's long-lived components under a suture v4
supervisor tree.

	root ("feedcast")
	├── data-layer
	│   └── badger-gc         value log garbage collection
	├── messaging-layer
	│   ├── session-registry  closes every push session on shutdown
	│   └── event-bus         consumes post events and fans them out
	└── api-layer
	    └── http-server

A crashed service is restarted by its own layer; a failing event bus does
not take the HTTP server down with it, and posts keep being stored while the
bus restarts. Supervisor events are logged through sutureslog over the
zerolog-backed slog handler.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(services.NewContextService("badger-gc", db))
	tree.AddMessagingService(services.NewContextService("session-registry", registry))
	tree.AddMessagingService(services.NewContextService("event-bus", bus))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)
*/
package supervisor
