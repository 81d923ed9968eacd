// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/feedcast/internal/logging"
)

type contextKey string

// IdentityContextKey holds the Identity set by Authenticate.
const IdentityContextKey contextKey = "identity"

// ResponseWriterFunc writes a refusal. The API package supplies one that
// renders the standard error envelope.
type ResponseWriterFunc func(w http.ResponseWriter, r *http.Request, err *Error)

// Middleware authenticates HTTP requests with the shared Verifier.
type Middleware struct {
	verifier *Verifier
	reject   ResponseWriterFunc
}

// NewMiddleware falls back to a plain-text refusal when reject is nil.
func NewMiddleware(verifier *Verifier, reject ResponseWriterFunc) *Middleware {
	if reject == nil {
		reject = func(w http.ResponseWriter, _ *http.Request, err *Error) {
			http.Error(w, err.Message(), err.Status())
		}
	}
	return &Middleware{verifier: verifier, reject: reject}
}

// Authenticate rejects requests without a valid bearer token and stores the
// Identity in the request context otherwise.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r)
		if err != nil {
			m.reject(w, r, err)
			return
		}

		id, verr := m.verifier.Verify(r.Context(), token)
		if verr != nil {
			ae, _ := verr.(*Error)
			logging.Ctx(r.Context()).Debug().Str("kind", string(ae.Kind)).Err(ae.Err).Msg("Request authentication refused")
			m.reject(w, r, ae)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, id)
		ctx = logging.ContextWithUserID(ctx, id.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken reads "Authorization: Bearer <token>". A missing header is
// KindMissingToken; any other shape is KindTokenInvalid.
func BearerToken(r *http.Request) (string, *Error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", newError(KindMissingToken, nil)
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", newError(KindTokenInvalid, nil)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", newError(KindMissingToken, nil)
	}
	return token, nil
}

// IdentityFromContext returns the Identity set by Authenticate.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(IdentityContextKey).(Identity)
	return id, ok
}
