// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

// Package config loads Feedcast configuration from defaults, an optional YAML
// file, and environment variables, in that order of precedence (last wins).
//
// Environment variables are mapped explicitly (see envTransformFunc); unknown
// variables are ignored so the process environment cannot leak into config.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Invalid configuration")
//	}
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Database  DatabaseConfig  `koanf:"database"`
	Storage   StorageConfig   `koanf:"storage"`
	Feed      FeedConfig      `koanf:"feed"`
	WebSocket WebSocketConfig `koanf:"websocket"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// SecurityConfig holds token verification and request limiting settings.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// DatabaseConfig configures the BadgerDB content and user store.
type DatabaseConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`

	// GCInterval is how often the value log is garbage collected. Zero
	// disables collection.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// StorageConfig selects where post files are read from.
type StorageConfig struct {
	// Backend is "disk" or "s3".
	Backend    string `koanf:"backend"`
	UploadsDir string `koanf:"uploads_dir"`

	S3 S3Config `koanf:"s3"`

	// Breaker settings guard remote backends.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// S3Config holds S3 (or S3-compatible) bucket settings.
type S3Config struct {
	Bucket          string `koanf:"bucket"`
	Region          string `koanf:"region"`
	Prefix          string `koanf:"prefix"`
	Endpoint        string `koanf:"endpoint"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	UsePathStyle    bool   `koanf:"use_path_style"`
}

// FeedConfig holds feed pagination settings.
type FeedConfig struct {
	DefaultPerPage int `koanf:"default_per_page"`
	MaxPerPage     int `koanf:"max_per_page"`

	// AuthorCacheSize and AuthorCacheTTL bound the in-memory author
	// summary cache used when joining posts with their authors.
	AuthorCacheSize int           `koanf:"author_cache_size"`
	AuthorCacheTTL  time.Duration `koanf:"author_cache_ttl"`
}

// WebSocketConfig tunes per-connection behaviour and fan-out.
type WebSocketConfig struct {
	SendBuffer     int           `koanf:"send_buffer"`
	WriteWait      time.Duration `koanf:"write_wait"`
	PongWait       time.Duration `koanf:"pong_wait"`
	MaxMessageSize int64         `koanf:"max_message_size"`
	InboundRate    float64       `koanf:"inbound_rate"`  // frames per second
	InboundBurst   int           `koanf:"inbound_burst"` // frames
	FanoutWorkers  int           `koanf:"fanout_workers"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load is the entry point used by main.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
