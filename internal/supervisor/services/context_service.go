// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package services

import "context"

// ContextRunner is a component that runs until its context is done.
// *websocket.Registry, *fanout.Bus and *database.DB satisfy it.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// ContextService supervises a ContextRunner.
type ContextService struct {
	runner ContextRunner
	name   string
}

// NewContextService names runner for supervisor events.
func NewContextService(name string, runner ContextRunner) *ContextService {
	return &ContextService{runner: runner, name: name}
}

// Serve implements suture.Service.
func (s *ContextService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

// String implements fmt.Stringer; suture uses it in log messages.
func (s *ContextService) String() string {
	return s.name
}
