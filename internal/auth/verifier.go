// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

// Package auth verifies bearer tokens for both the HTTP API and the push
// channel handshake.
//
// A token is accepted only if its signature and expiry check out and it names
// an existing, verified user. Every refusal is an *Error whose Kind tells the
// caller which of the five reasons applied.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/feedcast/internal/models"
)

// Identity is the authenticated principal attached to a request or session.
type Identity struct {
	UserID   string
	Username string
}

// UserLookup resolves a user id. Implementations wrap models.ErrNotFound when
// the user does not exist.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// TokenParser is satisfied by *JWTManager.
type TokenParser interface {
	ParseToken(token string) (*Claims, error)
}

// Verifier turns a raw token into an Identity.
type Verifier struct {
	tokens TokenParser
	users  UserLookup
}

// NewVerifier wires a token parser to a user lookup.
func NewVerifier(tokens TokenParser, users UserLookup) *Verifier {
	return &Verifier{tokens: tokens, users: users}
}

// Verify authenticates token. The error, when non-nil, is always an *Error.
// A lookup failure other than not-found is reported as KindTokenInvalid with
// the cause attached, so callers never admit on infrastructure errors.
func (v *Verifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, newError(KindMissingToken, nil)
	}

	claims, err := v.tokens.ParseToken(token)
	if err != nil {
		var ae *Error
		if errors.As(err, &ae) {
			return Identity{}, ae
		}
		return Identity{}, newError(KindTokenInvalid, err)
	}

	user, err := v.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return Identity{}, newError(KindUserNotFound, nil)
		}
		return Identity{}, newError(KindTokenInvalid, fmt.Errorf("user lookup: %w", err))
	}
	if !user.Verified {
		return Identity{}, newError(KindUserUnverified, nil)
	}

	return Identity{UserID: user.ID, Username: user.Username}, nil
}
