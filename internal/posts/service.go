// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

// Package posts creates posts and announces them to connected sessions.
package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/feedcast/internal/fanout"
	"github.com/tomtom215/feedcast/internal/logging"
	"github.com/tomtom215/feedcast/internal/models"
	"github.com/tomtom215/feedcast/internal/validation"
	"github.com/tomtom215/feedcast/internal/websocket"
)

// EventNewPost is the push event kind for a created post.
const EventNewPost = websocket.MessageTypeNewPost

// ErrAuthorNotFound is returned when the creating user does not exist.
var ErrAuthorNotFound = errors.New("author not found")

// CreateInput is the client-supplied part of a post.
type CreateInput struct {
	Title       string `json:"title" validate:"required,nonblank,min=3,max=100"`
	Description string `json:"description" validate:"max=1000"`
	IsPrivate   bool   `json:"isPrivate"`
	// FilePath is the object store reference written by the upload step for
	// this request. It is never decoded from the request body.
	FilePath string `json:"-" validate:"storedpath"`
}

// Repository persists posts.
type Repository interface {
	Create(ctx context.Context, p *models.Post) error
}

// UserLookup loads the author.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Publisher hands an event to the delivery path.
type Publisher interface {
	Publish(ctx context.Context, ev fanout.Event) error
}

// Service creates posts.
type Service struct {
	posts     Repository
	users     UserLookup
	publisher Publisher
	now       func() time.Time
	newID     func() string
}

// NewService wires the service. A nil publisher disables notifications.
func NewService(posts Repository, users UserLookup, publisher Publisher) *Service {
	return &Service{
		posts:     posts,
		users:     users,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Create validates in, stores the post for authorID, and returns it joined
// with its author. The new-post notification is published afterwards; a
// publish failure is logged and never fails the call.
func (s *Service) Create(ctx context.Context, authorID string, in CreateInput) (models.FeedPost, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.FilePath = strings.TrimPrefix(strings.TrimSpace(in.FilePath), "/")
	if err := validation.ValidateStruct(&in); err != nil {
		return models.FeedPost{}, err
	}

	author, err := s.users.GetUser(ctx, authorID)
	if errors.Is(err, models.ErrNotFound) {
		return models.FeedPost{}, ErrAuthorNotFound
	}
	if err != nil {
		return models.FeedPost{}, fmt.Errorf("load author: %w", err)
	}

	post := &models.Post{
		ID:          s.newID(),
		UserID:      authorID,
		Title:       in.Title,
		Description: in.Description,
		FilePath:    in.FilePath,
		IsPrivate:   in.IsPrivate,
		CreatedAt:   s.now(),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return models.FeedPost{}, fmt.Errorf("store post: %w", err)
	}

	result := models.NewFeedPost(post, author.Summary())
	s.announce(ctx, result)

	logging.Ctx(ctx).Info().
		Str("post_id", post.ID).
		Bool("private", post.IsPrivate).
		Msg("Post created")
	return result, nil
}

func (s *Service) announce(ctx context.Context, p models.FeedPost) {
	if s.publisher == nil {
		return
	}
	ev, err := fanout.NewEvent(EventNewPost, p, p.UserData.ID, p.IsPrivate)
	if err == nil {
		err = s.publisher.Publish(ctx, ev)
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("post_id", p.ID).Msg("Failed to publish new post event")
	}
}
