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
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/tomtom215/feedcast/internal/config"
	"github.com/tomtom215/feedcast/internal/metrics"
)

// getObjectAPI is the slice of the S3 client the store uses.
type getObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store reads objects from a bucket. Paths are appended to Prefix.
type S3Store struct {
	client getObjectAPI
	bucket string
	prefix string
}

// NewS3Store builds an S3 client from cfg. Static keys are used when set;
// otherwise requests are anonymous, which suits public buckets and local
// S3-compatible servers.
func NewS3Store(_ context.Context, cfg *config.S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.UsePathStyle,
		Credentials:  aws.AnonymousCredentials{},
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		creds := aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Source:          "feedcast-config",
		}
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil },
		))
	}

	return newS3Store(s3.New(opts), cfg.Bucket, cfg.Prefix), nil
}

func newS3Store(client getObjectAPI, bucket, prefix string) *S3Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// Name implements ObjectStore.
func (s *S3Store) Name() string { return "s3" }

// Get downloads the object at prefix+path.
func (s *S3Store) Get(ctx context.Context, path string) ([]byte, error) {
	data, err := s.get(ctx, path)
	metrics.RecordStorageRead(s.Name(), ignoreNotFound(err))
	return data, err
}

func (s *S3Store) get(ctx context.Context, path string) ([]byte, error) {
	key := strings.TrimPrefix(strings.TrimSpace(path), "/")
	if key == "" || strings.Contains(key, "..") {
		return nil, fmt.Errorf("%q: %w", path, ErrInvalidPath)
	}
	key = s.prefix + key

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	if out.ContentLength != nil && *out.ContentLength > MaxObjectSize {
		return nil, fmt.Errorf("s3://%s/%s exceeds %d bytes", s.bucket, key, MaxObjectSize)
	}
	data, err := io.ReadAll(io.LimitReader(out.Body, MaxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}
	if len(data) > MaxObjectSize {
		return nil, fmt.Errorf("s3://%s/%s exceeds %d bytes", s.bucket, key, MaxObjectSize)
	}
	return data, nil
}

func isS3NotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
