// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedcast/internal/feed"
	"github.com/tomtom215/feedcast/internal/posts"
)

// PostsFeed handles GET /api/v1/posts/feed.
//
// Query parameters:
//   - page: 1-based page number, default 1
//   - perPage: page size, default from config
//   - search: case-insensitive title substring
//   - isMyPostsOnly: "true" restricts to the requester's posts
//   - isPrivate: "true" lists private posts; only allowed with isMyPostsOnly
func (h *Handler) PostsFeed(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()
	me := requester(r)

	req := feed.Request{
		Requester:  me,
		Page:       feed.NormalizePage(q.Get("page")),
		PerPage:    getIntParam(r, "perPage", 0),
		Search:     q.Get("search"),
		Visibility: feed.VisibilityPublic,
	}
	if getBoolParam(r, "isMyPostsOnly") {
		req.AuthorID = me
	}
	if getBoolParam(r, "isPrivate") {
		req.Visibility = feed.VisibilityPrivate
	}

	page, err := h.feed.QueryFeed(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, page, start)
}

// UserPosts handles GET /api/v1/posts/user. Without userId, or with the
// requester's own id, private posts are included.
func (h *Handler) UserPosts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	page, err := h.feed.UserPosts(r.Context(),
		requester(r),
		strings.TrimSpace(q.Get("userId")),
		feed.NormalizePage(q.Get("page")),
		getIntParam(r, "perPage", 0),
	)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, page, start)
}

// CreatePost handles POST /api/v1/posts. A filePath in the body is ignored;
// the image, if any, comes from the upload step via WithUploadedFile.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "Request body too large.", nil)
			return
		}
		respondError(w, http.StatusBadRequest, CodeBadRequest, "Failed to read request body.", nil)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "Request body is required.", nil)
		return
	}

	var in posts.CreateInput
	if err := json.Unmarshal(body, &in); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "Malformed JSON body.", nil)
		return
	}
	in.FilePath = UploadedFileFromContext(r.Context())

	created, err := h.posts.Create(r.Context(), requester(r), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, created, start)
}

// PostImage handles GET /api/v1/posts/image?postId=...
func (h *Handler) PostImage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	postID := strings.TrimSpace(r.URL.Query().Get("postId"))
	if postID == "" {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "postId is required.", map[string]interface{}{"field": "postId"})
		return
	}

	img, err := h.feed.Image(r.Context(), requester(r), postID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, img, start)
}
