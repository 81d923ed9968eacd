// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/feedcast/internal/middleware"
)

// Authenticator guards the data endpoints. *auth.Middleware satisfies it.
type Authenticator interface {
	Authenticate(next http.Handler) http.Handler
}

// Router assembles the HTTP surface.
type Router struct {
	handler       *Handler
	auth          Authenticator
	push          http.Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter wires the endpoint handlers, the bearer authenticator and the
// /ws gatekeeper.
func NewRouter(handler *Handler, authenticator Authenticator, push http.Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		auth:          authenticator,
		push:          push,
		chiMiddleware: mw,
	}
}

// SetupChi configures all HTTP routes using Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Applied to ALL routes in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, CodeNotFound, "Route not found.", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed.", nil)
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/posts", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(router.auth.Authenticate)

		r.Get("/feed", router.handler.PostsFeed)
		r.Get("/user", router.handler.UserPosts)
		r.With(router.chiMiddleware.RateLimitCustom(RateLimitWrite)).Post("/", router.handler.CreatePost)
		r.With(middleware.Compression).Get("/image", router.handler.PostImage)
	})

	// The gatekeeper authenticates the handshake itself from the token header.
	if router.push != nil {
		r.With(router.chiMiddleware.RateLimitCustom(RateLimitWebSocket)).Handle("/ws", router.push)
	}

	r.Handle("/metrics", promhttp.Handler())

	return r
}
