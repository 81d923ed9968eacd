// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

/*
Package main is the entry point for the Feedcast server.

Feedcast tracks authenticated WebSocket sessions per user and pushes every
newly created post to the sessions allowed to see it: public posts to every
connected session, private posts only to their author's devices. It also
serves the paginated feed, per-user listings, post creation and post images
over a JSON API.

# Application Architecture

	root ("feedcast")
	├── data-layer
	│   └── badger-gc
	├── messaging-layer
	│   ├── session-registry
	│   └── event-bus (watermill gochannel)
	└── api-layer
	    └── http-server (chi)

Initialization order:

 1. Configuration: koanf v2 with defaults, optional YAML file, environment
 2. Logging: zerolog, JSON or console
 3. Database: BadgerDB posts and users
 4. Object store: uploads directory or S3 behind a circuit breaker
 5. Push delivery: session registry, fan-out engine, event bus
 6. Authentication: HS256 JWT verification plus user lookup
 7. Feed engine and post service
 8. HTTP server and supervisor tree

# Configuration

Common environment variables:

	JWT_SECRET            32+ character HS256 secret (required)
	HTTP_PORT             listen port (default 8080)
	BADGER_PATH           database directory
	STORAGE_BACKEND       disk or s3
	UPLOADS_DIR           root for the disk backend
	S3_BUCKET, S3_REGION  bucket settings for the s3 backend
	CORS_ORIGINS          comma-separated allowed origins
	LOG_LEVEL, LOG_FORMAT logging

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests, the registry closes every push session, and the
database is closed once the tree has stopped.
*/
package main
