// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package auth

import (
	"errors"
	"net/http"
)

// Kind classifies why a credential was refused.
type Kind string

const (
	KindMissingToken   Kind = "TOKEN_MISSING"
	KindTokenExpired   Kind = "TOKEN_EXPIRED"
	KindTokenInvalid   Kind = "TOKEN_INVALID"
	KindUserNotFound   Kind = "USER_NOT_FOUND"
	KindUserUnverified Kind = "USER_NOT_VERIFIED"
)

var kindMessages = map[Kind]string{
	KindMissingToken:   "Token not provided.",
	KindTokenExpired:   "Access token expired.",
	KindTokenInvalid:   "Invalid access token.",
	KindUserNotFound:   "User not found.",
	KindUserUnverified: "User not verified.",
}

// Error is returned by Verify. Callers branch on Kind; Err holds the cause
// when there is one (a JWT parse error or a lookup failure).
type Error struct {
	Kind Kind
	Err  error
}

func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return kindMessages[e.Kind] + " " + e.Err.Error()
	}
	return kindMessages[e.Kind]
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the client-facing text; it never includes the cause.
func (e *Error) Message() string {
	return kindMessages[e.Kind]
}

// Status maps the kind to an HTTP status. Expired tokens get 403 so clients
// can tell "refresh your token" apart from "log in again".
func (e *Error) Status() int {
	if e.Kind == KindTokenExpired {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// KindOf extracts the Kind from err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
