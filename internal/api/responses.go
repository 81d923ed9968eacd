// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedcast/internal/auth"
	"github.com/tomtom215/feedcast/internal/feed"
	"github.com/tomtom215/feedcast/internal/logging"
	"github.com/tomtom215/feedcast/internal/models"
	"github.com/tomtom215/feedcast/internal/posts"
	"github.com/tomtom215/feedcast/internal/storage"
	"github.com/tomtom215/feedcast/internal/validation"
)

// Error codes written by this package. Auth codes come from auth.Kind and
// VALIDATION_ERROR from the validation package.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeNotFound        = "NOT_FOUND"
	CodeNoImage         = "NO_IMAGE"
	CodeFileUnavailable = "FILE_UNAVAILABLE"
	CodeForbidden       = "FORBIDDEN"
	CodeUnavailable     = "SERVICE_UNAVAILABLE"
	CodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	CodeInternal        = "INTERNAL_ERROR"
)

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess wraps data in a success envelope.
func respondSuccess(w http.ResponseWriter, status int, data interface{}, start time.Time) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// RespondAuthError renders a refused credential. It backs both the bearer
// middleware and the /ws gatekeeper.
func RespondAuthError(w http.ResponseWriter, _ *http.Request, err *auth.Error) {
	respondError(w, err.Status(), string(err.Kind), err.Message(), nil)
}

// respondServiceError maps a domain error to its HTTP form.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestError
	var aerr *auth.Error

	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, validation.CodeValidation, verr.Error(), verr.Details())
	case errors.As(err, &aerr):
		RespondAuthError(w, r, aerr)
	case errors.Is(err, posts.ErrAuthorNotFound):
		respondError(w, http.StatusUnauthorized, string(auth.KindUserNotFound), "User not found.", nil)
	case errors.Is(err, feed.ErrNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, "Post not found.", nil)
	case errors.Is(err, feed.ErrForbidden):
		respondError(w, http.StatusForbidden, CodeForbidden, "Private post.", nil)
	case errors.Is(err, feed.ErrNoImage):
		respondError(w, http.StatusNotFound, CodeNoImage, "Post contains no image.", nil)
	case errors.Is(err, storage.ErrStoreUnavailable):
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Object store unavailable")
		respondError(w, http.StatusServiceUnavailable, CodeUnavailable, "File storage temporarily unavailable.", nil)
	case errors.Is(err, feed.ErrFileUnavailable):
		respondError(w, http.StatusNotFound, CodeFileUnavailable, "File not found or malformed file path.", nil)
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful can be written.
		logging.Ctx(r.Context()).Debug().Str("path", r.URL.Path).Msg("Request canceled by client")
	default:
		logging.Ctx(r.Context()).Error().
			Str("path", r.URL.Path).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API Error")
		respondError(w, http.StatusInternalServerError, CodeInternal, "Internal server error.", nil)
	}
}
