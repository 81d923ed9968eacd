// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/feedcast/internal/auth"
	"github.com/tomtom215/feedcast/internal/feed"
	"github.com/tomtom215/feedcast/internal/models"
	"github.com/tomtom215/feedcast/internal/posts"
)

// FeedService answers read queries. *feed.Engine satisfies it.
type FeedService interface {
	QueryFeed(ctx context.Context, req feed.Request) (models.FeedPage, error)
	UserPosts(ctx context.Context, requester, userID string, page, perPage int) (models.FeedPage, error)
	Image(ctx context.Context, requester, postID string) (feed.ImageData, error)
}

// PostCreator creates posts. *posts.Service satisfies it.
type PostCreator interface {
	Create(ctx context.Context, authorID string, in posts.CreateInput) (models.FeedPost, error)
}

// Pinger reports storage health. *database.DB satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter reports push channel occupancy. *websocket.Registry
// satisfies it.
type SessionCounter interface {
	UserCount() int
	SessionCount() int
}

type uploadedFileKey struct{}

// WithUploadedFile records the object store reference that an upload
// middleware stored for this request. CreatePost attaches only this
// reference to the new post.
func WithUploadedFile(ctx context.Context, ref string) context.Context {
	return context.WithValue(ctx, uploadedFileKey{}, ref)
}

// UploadedFileFromContext returns the reference set by WithUploadedFile.
func UploadedFileFromContext(ctx context.Context) string {
	ref, _ := ctx.Value(uploadedFileKey{}).(string)
	return ref
}

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// Handler holds the dependencies of every endpoint.
type Handler struct {
	feed      FeedService
	posts     PostCreator
	db        Pinger
	sessions  SessionCounter
	startTime time.Time
}

// NewHandler creates the endpoint set.
func NewHandler(feedSvc FeedService, postSvc PostCreator, db Pinger, sessions SessionCounter) *Handler {
	return &Handler{
		feed:      feedSvc,
		posts:     postSvc,
		db:        db,
		sessions:  sessions,
		startTime: time.Now(),
	}
}

// requester returns the authenticated user id. Routes behind Authenticate
// always have one.
func requester(r *http.Request) string {
	id, _ := auth.IdentityFromContext(r.Context())
	return id.UserID
}

// getIntParam extracts an integer query parameter with a default value
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// getBoolParam treats only "true" (any case) as set.
func getBoolParam(r *http.Request, key string) bool {
	return strings.EqualFold(strings.TrimSpace(r.URL.Query().Get(key)), "true")
}
