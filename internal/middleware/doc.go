// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

/*
Package middleware provides the HTTP middleware shared by every route.

Components:

  - RequestID: accepts or issues an X-Request-ID and seeds the logging context
  - PrometheusMetrics: request counts, latency and in-flight gauge, labelled
    by the chi route pattern so path parameters do not explode cardinality
  - Compression: gzip for clients that accept it; WebSocket upgrades pass
    through untouched

All middleware has the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.With(middleware.Compression).Get("/api/v1/posts/image", h.PostImage)

Response writers installed here keep http.Hijacker and http.Flusher working,
which the WebSocket upgrade on /ws depends on.
*/
package middleware
