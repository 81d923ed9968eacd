// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

// Package validation validates request structs with go-playground/validator
// v10 and converts failures into the VALIDATION_ERROR envelope.
//
// A single validator instance is shared; it caches struct metadata and is
// safe for concurrent use. Two rules are added to the built-in set:
//
//   - nonblank: the string contains at least one non-whitespace character
//   - storedpath: an optional relative path that cannot escape the upload root
//
// Example:
//
//	type CreatePostInput struct {
//	    Title string `json:"title" validate:"required,nonblank,min=3,max=100"`
//	}
//
//	if err := validation.ValidateStruct(&in); err != nil {
//	    var verr *validation.RequestError
//	    errors.As(err, &verr)
//	    respondError(w, http.StatusBadRequest, validation.CodeValidation, verr.Error(), verr.Details())
//	}
package validation
