// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package models

import (
	"time"
)

// APIResponse is the envelope every HTTP endpoint writes.
//
//	{
//	  "status": "success",
//	  "data": {"total": 12, "data": [...]},
//	  "metadata": {"timestamp": "2026-10-14T12:00:00Z", "query_time_ms": 3}
//	}
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "error": {"code": "TOKEN_EXPIRED", "message": "Access token expired."},
//	  "metadata": {"timestamp": "2026-10-14T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata is attached to every response.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError carries a machine-readable code and a message meant for people.
//
// Codes used by Feedcast:
//   - TOKEN_MISSING, TOKEN_EXPIRED, TOKEN_INVALID: bearer problems
//   - USER_NOT_FOUND, USER_NOT_VERIFIED: identity problems
//   - VALIDATION_ERROR, BAD_REQUEST: malformed input
//   - NOT_FOUND, NO_IMAGE, FILE_UNAVAILABLE: missing resources
//   - FORBIDDEN: private content requested by someone other than its author
//   - INTERNAL_ERROR: anything else
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
