// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package websocket

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/feedcast/internal/auth"
	"github.com/tomtom215/feedcast/internal/logging"
	"github.com/tomtom215/feedcast/internal/metrics"
)

// TokenHeader carries the access token on the handshake request.
const TokenHeader = "token"

// Verifier authenticates a handshake token. *auth.Verifier satisfies it.
type Verifier interface {
	Verify(ctx context.Context, token string) (auth.Identity, error)
}

// GatekeeperOptions configure the /ws handler.
type GatekeeperOptions struct {
	Client ClientOptions
	// AllowedOrigins is checked only when the request carries an Origin
	// header. "*" allows any origin.
	AllowedOrigins []string
	// Reject writes a refusal. Defaults to a plain-text error.
	Reject auth.ResponseWriterFunc
}

// Gatekeeper authenticates and upgrades push channel handshakes.
type Gatekeeper struct {
	verifier Verifier
	registry *Registry
	opts     GatekeeperOptions
	upgrader websocket.Upgrader
}

// NewGatekeeper builds the /ws handler.
func NewGatekeeper(verifier Verifier, registry *Registry, opts GatekeeperOptions) *Gatekeeper {
	if opts.Reject == nil {
		opts.Reject = func(w http.ResponseWriter, _ *http.Request, err *auth.Error) {
			http.Error(w, err.Message(), err.Status())
		}
	}
	g := &Gatekeeper{verifier: verifier, registry: registry, opts: opts}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      g.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return g
}

// ServeHTTP verifies the token, and only then upgrades and admits. A refused
// handshake gets an HTTP error response and leaves the registry untouched.
func (g *Gatekeeper) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := r.Header.Get(TokenHeader)
	if token == "" {
		if bearer, err := auth.BearerToken(r); err == nil {
			token = bearer
		}
	}

	identity, err := g.verifier.Verify(ctx, token)
	if err != nil {
		var ae *auth.Error
		if !errors.As(err, &ae) {
			ae = &auth.Error{Kind: auth.KindTokenInvalid, Err: err}
		}
		metrics.WSAdmissions.WithLabelValues(string(ae.Kind)).Inc()
		logging.Ctx(ctx).Debug().Str("kind", string(ae.Kind)).Err(ae.Err).Msg("Push handshake refused")
		g.opts.Reject(w, r, ae)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		metrics.WSErrors.WithLabelValues("upgrade").Inc()
		logging.Ctx(ctx).Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := NewClient(g.registry, conn, identity.UserID, g.opts.Client)
	if err := client.Start(); err != nil {
		metrics.WSErrors.WithLabelValues("admit").Inc()
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to admit push session")
		return
	}

	metrics.WSAdmissions.WithLabelValues("admitted").Inc()
	logging.Ctx(ctx).Info().
		Str("user_id", identity.UserID).
		Str("session_id", client.ID()).
		Int("user_sessions", len(g.registry.SessionsFor(identity.UserID))).
		Msg("Push session admitted")
}

func (g *Gatekeeper) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	// Browsers always send Origin; native clients do not and authenticate
	// with the token alone.
	if origin == "" {
		return true
	}
	for _, allowed := range g.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
