// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package models

import "errors"

// ErrNotFound is wrapped by repositories when a record does not exist.
var ErrNotFound = errors.New("record not found")
