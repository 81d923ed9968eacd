// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

// Package feed answers paginated, privacy-filtered feed queries and serves
// the image attached to a post.
//
// A query is a Predicate (author, visibility, title search) and a Window
// over posts sorted newest first. Each page is joined with its authors in a
// single batched lookup and projected to models.FeedPost; posts whose author
// no longer exists are left out of the page.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/feedcast/internal/database"
	"github.com/tomtom215/feedcast/internal/logging"
	"github.com/tomtom215/feedcast/internal/metrics"
	"github.com/tomtom215/feedcast/internal/models"
	"github.com/tomtom215/feedcast/internal/storage"
)

// PostStore is the content repository.
type PostStore interface {
	FindByID(ctx context.Context, id string) (*models.Post, error)
	Find(ctx context.Context, f database.PostFilter, offset, limit int) ([]*models.Post, error)
	Count(ctx context.Context, f database.PostFilter) (int64, error)
}

// AuthorStore resolves author summaries in bulk.
type AuthorStore interface {
	Summaries(ctx context.Context, ids []string) (map[string]models.AuthorSummary, error)
}

// Options bounds page sizes.
type Options struct {
	DefaultPerPage int
	MaxPerPage     int
}

// Engine runs feed queries.
type Engine struct {
	posts   PostStore
	authors AuthorStore
	objects storage.ObjectStore
	opts    Options
}

// NewEngine wires the repositories and the object store.
func NewEngine(posts PostStore, authors AuthorStore, objects storage.ObjectStore, opts Options) *Engine {
	if opts.DefaultPerPage <= 0 {
		opts.DefaultPerPage = DefaultPerPage
	}
	return &Engine{posts: posts, authors: authors, objects: objects, opts: opts}
}

// Request is one feed query as received from a client.
type Request struct {
	Requester  string
	Page       int // 0-based
	PerPage    int
	Search     string
	AuthorID   string
	Visibility Visibility
}

// QueryFeed runs req. Asking for private posts of anyone but the requester
// is ErrForbidden.
func (e *Engine) QueryFeed(ctx context.Context, req Request) (models.FeedPage, error) {
	if req.Visibility == VisibilityPrivate && (req.AuthorID == "" || req.AuthorID != req.Requester) {
		return models.FeedPage{}, ErrForbidden
	}

	q := NewQuery(req.Requester).
		ByAuthor(req.AuthorID).
		WithVisibility(req.Visibility).
		Search(req.Search).
		Page(req.Page, e.perPage(req.PerPage))

	return e.Run(ctx, "feed", q)
}

// UserPosts lists one user's posts. The requester's own listing (userID
// empty or equal to requester) includes private posts; anyone else's
// listing is public posts only.
func (e *Engine) UserPosts(ctx context.Context, requester, userID string, page, perPage int) (models.FeedPage, error) {
	q := NewQuery(requester).Page(page, e.perPage(perPage))
	if userID == "" || userID == requester {
		q.ByAuthor(requester).WithVisibility(VisibilityAny)
	} else {
		q.ByAuthor(userID).WithVisibility(VisibilityPublic)
	}
	return e.Run(ctx, "user_posts", q)
}

func (e *Engine) perPage(n int) int {
	if n <= 0 {
		n = e.opts.DefaultPerPage
	}
	if e.opts.MaxPerPage > 0 && n > e.opts.MaxPerPage {
		n = e.opts.MaxPerPage
	}
	return n
}

// Run executes q: count, window, join, project. name labels the duration
// metric.
func (e *Engine) Run(ctx context.Context, name string, q *Query) (models.FeedPage, error) {
	start := time.Now()
	defer func() {
		metrics.FeedQueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	filter := q.Predicate.Filter()

	total, err := e.posts.Count(ctx, filter)
	if err != nil {
		return models.FeedPage{}, fmt.Errorf("count posts: %w", err)
	}

	posts, err := e.posts.Find(ctx, filter, q.Window.Offset(), q.Window.PerPage)
	if err != nil {
		return models.FeedPage{}, fmt.Errorf("find posts: %w", err)
	}

	page, err := e.join(ctx, posts)
	if err != nil {
		return models.FeedPage{}, err
	}

	if dropped := len(posts) - len(page); dropped > 0 {
		logging.Ctx(ctx).Warn().
			Str("query", name).
			Int("page", q.Window.Page).
			Int("dropped", dropped).
			Int64("total", total).
			Msg("Feed page short of window: posts without author omitted, total unchanged")
	}

	logging.Ctx(ctx).Debug().
		Str("query", name).
		Str("visibility", q.Predicate.Visibility.String()).
		Int("page", q.Window.Page).
		Int("per_page", q.Window.PerPage).
		Int64("total", total).
		Int("returned", len(page)).
		Msg("Feed query")

	return models.FeedPage{Total: total, Posts: page}, nil
}

// join attaches author summaries with one lookup for the whole window and
// drops posts whose author is missing.
func (e *Engine) join(ctx context.Context, posts []*models.Post) ([]models.FeedPost, error) {
	out := make([]models.FeedPost, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.UserID)
	}
	authors, err := e.authors.Summaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}

	for _, p := range posts {
		author, ok := authors[p.UserID]
		if !ok {
			logging.Ctx(ctx).Warn().Str("post_id", p.ID).Str("user_id", p.UserID).Msg("Dropping post with missing author")
			continue
		}
		out = append(out, models.NewFeedPost(p, author))
	}
	return out, nil
}
