// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/feedcast/internal/api"
	"github.com/tomtom215/feedcast/internal/auth"
	"github.com/tomtom215/feedcast/internal/cache"
	"github.com/tomtom215/feedcast/internal/config"
	"github.com/tomtom215/feedcast/internal/database"
	"github.com/tomtom215/feedcast/internal/fanout"
	"github.com/tomtom215/feedcast/internal/feed"
	"github.com/tomtom215/feedcast/internal/logging"
	"github.com/tomtom215/feedcast/internal/posts"
	"github.com/tomtom215/feedcast/internal/storage"
	"github.com/tomtom215/feedcast/internal/supervisor"
	"github.com/tomtom215/feedcast/internal/supervisor/services"
	ws "github.com/tomtom215/feedcast/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Bool("db_in_memory", cfg.Database.InMemory).
		Str("storage_backend", cfg.Storage.Backend).
		Msg("Starting Feedcast")

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin; set CORS_ORIGINS for production deployments")
	}

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Feedcast stopped with an error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run wires every component and blocks until a shutdown signal.
//
//nolint:gocyclo // sequential setup steps
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	objects, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		return err
	}
	logging.Info().Str("backend", objects.Name()).Msg("Object store ready")

	// Push delivery
	registry := ws.NewRegistry()
	bus := fanout.NewBus(
		fanout.NewEngine(registry, cfg.WebSocket.FanoutWorkers),
		logging.NewWatermillAdapter("event-bus"),
	)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	// Authentication
	tokens, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return err
	}
	verifier := auth.NewVerifier(tokens, db.Users)

	authors := cache.NewAuthorCache(db.Users, cfg.Feed.AuthorCacheSize, cfg.Feed.AuthorCacheTTL)
	feedEngine := feed.NewEngine(db.Posts, authors, objects, feed.Options{
		DefaultPerPage: cfg.Feed.DefaultPerPage,
		MaxPerPage:     cfg.Feed.MaxPerPage,
	})
	postService := posts.NewService(db.Posts, db.Users, bus)

	gatekeeper := ws.NewGatekeeper(verifier, registry, ws.GatekeeperOptions{
		Client:         clientOptions(&cfg.WebSocket),
		AllowedOrigins: cfg.Security.CORSOrigins,
		Reject:         api.RespondAuthError,
	})

	handler := api.NewHandler(feedEngine, postService, db, registry)
	router := api.NewRouter(
		handler,
		auth.NewMiddleware(verifier, api.RespondAuthError),
		gatekeeper,
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)),
	)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	tree.AddDataService(services.NewContextService(db.String(), db))
	tree.AddMessagingService(services.NewContextService("session-registry", registry))
	tree.AddMessagingService(services.NewContextService("event-bus", bus))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Serve returns once ctx is canceled and the tree has stopped.
	serveErr := <-errCh
	if errors.Is(serveErr, context.Canceled) {
		serveErr = nil
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	return serveErr
}

func clientOptions(c *config.WebSocketConfig) ws.ClientOptions {
	return ws.ClientOptions{
		SendBuffer:     c.SendBuffer,
		WriteWait:      c.WriteWait,
		PongWait:       c.PongWait,
		MaxMessageSize: c.MaxMessageSize,
		InboundRate:    rate.Limit(c.InboundRate),
		InboundBurst:   c.InboundBurst,
	}
}
