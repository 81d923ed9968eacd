// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package feed

import "errors"

var (
	// ErrNotFound means the post does not exist.
	ErrNotFound = errors.New("post not found")
	// ErrNoImage means the post has no stored file.
	ErrNoImage = errors.New("post contains no image")
	// ErrForbidden means the post is private and the requester is not its author.
	ErrForbidden = errors.New("private post")
	// ErrFileUnavailable means the post references a file the store cannot supply.
	ErrFileUnavailable = errors.New("file not found or malformed file path")
)
