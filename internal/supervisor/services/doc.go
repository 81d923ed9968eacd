// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

/*
Package services adapts Feedcast components to suture.Service.

HTTPServerService turns http.Server's blocking ListenAndServe into a Serve
that shuts the server down gracefully when the supervisor stops it.

ContextService wraps anything with a RunWithContext(ctx) error lifecycle:
the session registry, the event bus and the database garbage collector.
It only adds a name for supervisor logs.
*/
package services
