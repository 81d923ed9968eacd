// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/feedcast/internal/logging"
)

const defaultShutdownTimeout = 10 * time.Second

// HTTPServer is the lifecycle subset of *http.Server.
//
// Tests substitute a mock; production passes the *http.Server that serves
// the REST API and the /ws upgrade endpoint.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// forceCloser is implemented by *http.Server. It is used when a graceful
// drain does not finish within the shutdown timeout.
type forceCloser interface {
	Close() error
}

// HTTPServerService runs the API server as a supervised service.
//
// Serve bridges the blocking ListenAndServe call to suture's context
// lifecycle:
//
//  1. ListenAndServe runs in its own goroutine
//  2. a listen failure is returned so the supervisor restarts the server
//  3. on cancellation, Shutdown drains in-flight requests for up to the
//     shutdown timeout; if the drain fails the server is force-closed
//
// Upgraded /ws connections are hijacked and therefore not drained by
// Shutdown. The session registry closes them when the messaging layer stops.
//
// Example usage:
//
//	server := &http.Server{Addr: cfg.Addr(), Handler: router.SetupChi()}
//	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	name            string
}

// NewHTTPServerService wraps server. A non-positive shutdownTimeout means 10s.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "http-server",
	}
}

// Serve implements suture.Service.
//
// It returns ctx.Err() after a clean drain, a wrapped listen error when the
// server cannot start, and a wrapped shutdown error when the drain times out.
// http.ErrServerClosed is expected on shutdown and never reported.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logging.Info().Str("service", h.name).Str("addr", h.addr()).Msg("HTTP server listening")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		return h.shutdown(ctx, errCh)
	}
}

// shutdown drains the server. ctx is already canceled, so the drain runs on
// its own deadline.
func (h *HTTPServerService) shutdown(ctx context.Context, errCh <-chan error) error {
	start := time.Now()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()

	if err := h.server.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).
			Str("service", h.name).
			Dur("timeout", h.shutdownTimeout).
			Msg("HTTP server drain incomplete, closing remaining connections")
		if fc, ok := h.server.(forceCloser); ok {
			if cerr := fc.Close(); cerr != nil {
				logging.Error().Err(cerr).Str("service", h.name).Msg("HTTP server force close failed")
			}
		}
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	<-errCh
	logging.Info().
		Str("service", h.name).
		Dur("drain", time.Since(start)).
		Msg("HTTP server stopped")
	return ctx.Err()
}

func (h *HTTPServerService) addr() string {
	if s, ok := h.server.(*http.Server); ok {
		return s.Addr
	}
	return "unknown"
}

// String implements fmt.Stringer. Suture uses it in its event log.
func (h *HTTPServerService) String() string {
	return h.name
}
