// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/feedcast/internal/config"
	"github.com/tomtom215/feedcast/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDiskStoreGet(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "cat.png", []byte("png-bytes"))
	writeFile(t, root, "nested/dog.jpg", []byte("jpg-bytes"))
	if err := os.Mkdir(filepath.Join(root, "folder"), 0o755); err != nil {
		t.Fatal(err)
	}

	store, err := NewDiskStore(root)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr error
	}{
		{"plain file", "cat.png", "png-bytes", nil},
		{"leading slash", "/cat.png", "png-bytes", nil},
		{"nested", "nested/dog.jpg", "jpg-bytes", nil},
		{"missing", "nope.png", "", ErrObjectNotFound},
		{"directory", "folder", "", ErrObjectNotFound},
		{"empty", "", "", ErrInvalidPath},
		{"parent escape", "../etc/passwd", "", ErrInvalidPath},
		{"inner escape", "nested/../../x", "", ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Get(ctx, tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Get(%q) error = %v, want %v", tt.path, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get(%q): %v", tt.path, err)
			}
			if string(got) != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestDiskStoreRefusesSymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	writeFile(t, outside, "secret.txt", []byte("secret"))
	root := t.TempDir()
	if err := os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(root, "link.png")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	store, _ := NewDiskStore(root)
	if _, err := store.Get(context.Background(), "link.png"); err == nil {
		t.Fatal("symlink pointing outside the root must not be followed")
	}
}

func TestDiskStoreRequiresRoot(t *testing.T) {
	if _, err := NewDiskStore(""); err == nil {
		t.Error("expected error for empty root")
	}
}

type fakeS3 struct {
	objects map[string][]byte
	err     error
	lastKey string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.lastKey = aws.ToString(in.Key)
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[f.lastKey]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func TestS3StoreGet(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{"posts/cat.png": []byte("meow")}}
	store := newS3Store(client, "bucket", "posts")
	ctx := context.Background()

	got, err := store.Get(ctx, "/cat.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "meow" || client.lastKey != "posts/cat.png" {
		t.Errorf("got %q from key %q", got, client.lastKey)
	}

	if _, err := store.Get(ctx, "dog.png"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("missing key error = %v, want ErrObjectNotFound", err)
	}
	if _, err := store.Get(ctx, "../x"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("traversal error = %v, want ErrInvalidPath", err)
	}

	client.err = errors.New("connection reset")
	if _, err := store.Get(ctx, "cat.png"); err == nil || errors.Is(err, ErrObjectNotFound) {
		t.Errorf("transport error should pass through, got %v", err)
	}
}

func TestNewS3StoreConfig(t *testing.T) {
	if _, err := NewS3Store(context.Background(), &config.S3Config{}); err == nil {
		t.Error("expected error without bucket")
	}
	store, err := NewS3Store(context.Background(), &config.S3Config{
		Bucket:          "b",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}
	if store.Name() != "s3" {
		t.Errorf("Name() = %q", store.Name())
	}
}

type flakyStore struct {
	calls atomic.Int32
	err   error
}

func (f *flakyStore) Name() string { return "flaky" }

func (f *flakyStore) Get(context.Context, string) ([]byte, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("ok"), nil
}

func TestBreakerStoreOpensAfterFailures(t *testing.T) {
	inner := &flakyStore{err: errors.New("backend down")}
	store := NewBreakerStore(inner, BreakerOptions{MaxFailures: 3, Timeout: 50 * time.Millisecond})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.Get(ctx, "x"); err == nil {
			t.Fatal("expected backend error")
		}
	}
	if store.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", store.State())
	}

	_, err := store.Get(ctx, "x")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("open circuit error = %v, want ErrStoreUnavailable", err)
	}
	if inner.calls.Load() != 3 {
		t.Errorf("backend called %d times, want 3", inner.calls.Load())
	}

	inner.err = nil
	time.Sleep(80 * time.Millisecond)
	data, err := store.Get(ctx, "x")
	if err != nil || string(data) != "ok" {
		t.Fatalf("probe after timeout = %q, %v", data, err)
	}
	if store.State() != gobreaker.StateClosed {
		t.Errorf("state = %v, want closed after successful probe", store.State())
	}
}

func TestBreakerStoreIgnoresNotFound(t *testing.T) {
	inner := &flakyStore{err: ErrObjectNotFound}
	store := NewBreakerStore(inner, BreakerOptions{MaxFailures: 1})

	for i := 0; i < 5; i++ {
		if _, err := store.Get(context.Background(), "x"); !errors.Is(err, ErrObjectNotFound) {
			t.Fatalf("error = %v, want ErrObjectNotFound", err)
		}
	}
	if store.State() != gobreaker.StateClosed {
		t.Error("missing objects must not open the circuit")
	}
	if store.Name() != "flaky" {
		t.Errorf("Name() = %q", store.Name())
	}
}

func TestNewSelectsBackend(t *testing.T) {
	ctx := context.Background()

	disk, err := New(ctx, &config.StorageConfig{Backend: "disk", UploadsDir: t.TempDir()})
	if err != nil || disk.Name() != "disk" {
		t.Fatalf("disk backend = %v, %v", disk, err)
	}

	remote, err := New(ctx, &config.StorageConfig{
		Backend: "s3",
		S3:      config.S3Config{Bucket: "b", Region: "eu-west-1"},
	})
	if err != nil {
		t.Fatalf("s3 backend: %v", err)
	}
	if _, ok := remote.(*BreakerStore); !ok {
		t.Errorf("s3 backend should be wrapped in a breaker, got %T", remote)
	}

	if _, err := New(ctx, &config.StorageConfig{Backend: "ftp"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
