// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomtom215/feedcast/internal/metrics"
)

// DiskStore reads files beneath a root directory.
type DiskStore struct {
	root string
}

// NewDiskStore resolves root to an absolute path. The directory does not
// have to exist yet; reads fail with ErrObjectNotFound until it does.
func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, errors.New("uploads directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads directory: %w", err)
	}
	return &DiskStore{root: abs}, nil
}

// Name implements ObjectStore.
func (d *DiskStore) Name() string { return "disk" }

// Get reads the file at path relative to the root. A leading "/" is
// stripped.
func (d *DiskStore) Get(ctx context.Context, path string) ([]byte, error) {
	data, err := d.get(ctx, path)
	metrics.RecordStorageRead(d.Name(), ignoreNotFound(err))
	return data, err
}

func (d *DiskStore) get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := d.relative(path)
	if err != nil {
		return nil, err
	}

	// OpenInRoot refuses symlinks and ".." that resolve outside root.
	f, err := os.OpenInRoot(d.root, rel)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, ErrObjectNotFound)
	}
	if info.Size() > MaxObjectSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", path, MaxObjectSize)
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) > MaxObjectSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", path, MaxObjectSize)
	}
	return data, nil
}

func (d *DiskStore) relative(path string) (string, error) {
	p := filepath.ToSlash(strings.TrimSpace(path))
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "", fmt.Errorf("empty path: %w", ErrInvalidPath)
	}
	if !fs.ValidPath(p) {
		return "", fmt.Errorf("%q: %w", path, ErrInvalidPath)
	}
	return filepath.FromSlash(p), nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrObjectNotFound) {
		return nil
	}
	return err
}
