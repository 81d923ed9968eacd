// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

// Package storage reads stored post files by path.
//
// Two backends exist: a local uploads directory and an S3 (or S3-compatible)
// bucket. Remote backends are wrapped in a circuit breaker. Only reads are
// implemented; files are written by the upload collaborator.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/feedcast/internal/config"
)

// ErrObjectNotFound is returned (wrapped) when no object exists at a path.
var ErrObjectNotFound = errors.New("object not found")

// ErrInvalidPath is returned for paths that escape the store root.
var ErrInvalidPath = errors.New("invalid object path")

// MaxObjectSize caps a single read. Larger objects are refused.
const MaxObjectSize = 16 << 20

// ObjectStore supplies the bytes stored at a path.
type ObjectStore interface {
	Get(ctx context.Context, path string) ([]byte, error)
	// Name identifies the backend in logs and metrics.
	Name() string
}

// New builds the backend selected by cfg.
func New(ctx context.Context, cfg *config.StorageConfig) (ObjectStore, error) {
	switch cfg.Backend {
	case "disk", "":
		return NewDiskStore(cfg.UploadsDir)
	case "s3":
		s3Store, err := NewS3Store(ctx, &cfg.S3)
		if err != nil {
			return nil, err
		}
		return NewBreakerStore(s3Store, BreakerOptions{
			MaxFailures: cfg.BreakerMaxFailures,
			Timeout:     cfg.BreakerTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
