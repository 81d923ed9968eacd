// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

// Package api serves the Feedcast HTTP surface: the feed and post endpoints,
// the /ws push channel handshake, health probes, and /metrics.
//
// Every JSON response uses the models.APIResponse envelope. Errors from the
// domain packages are mapped to status codes and error codes in one place,
// respondServiceError, so handlers only decide which operation to run.
package api
