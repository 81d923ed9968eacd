// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package feed

import (
	"strconv"
	"strings"

	"github.com/tomtom215/feedcast/internal/database"
	"github.com/tomtom215/feedcast/internal/models"
)

// Visibility selects which posts a query considers.
type Visibility int

const (
	// VisibilityPublic matches public posts only. It is the default.
	VisibilityPublic Visibility = iota
	// VisibilityPrivate matches private posts only. It is valid only when
	// the query is restricted to the requester's own posts.
	VisibilityPrivate
	// VisibilityAny drops the visibility term.
	VisibilityAny
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityPrivate:
		return "private"
	case VisibilityAny:
		return "any"
	default:
		return "unknown"
	}
}

// DefaultPerPage is used when a request does not ask for a positive size.
const DefaultPerPage = 5

// Predicate is the filter part of a feed query.
type Predicate struct {
	Requester  string
	AuthorID   string
	Search     string
	Visibility Visibility
}

// Matches reports whether p satisfies the predicate. Whatever the visibility
// term says, private posts only ever match for their author.
func (pr Predicate) Matches(p *models.Post) bool {
	if pr.AuthorID != "" && p.UserID != pr.AuthorID {
		return false
	}
	switch pr.Visibility {
	case VisibilityPublic:
		if p.IsPrivate {
			return false
		}
	case VisibilityPrivate:
		if !p.IsPrivate {
			return false
		}
	}
	if !p.VisibleTo(pr.Requester) {
		return false
	}
	if pr.Search != "" && !containsFold(p.Title, pr.Search) {
		return false
	}
	return true
}

// Filter converts the predicate into a repository scan filter.
func (pr Predicate) Filter() database.PostFilter {
	return database.PostFilter{AuthorID: pr.AuthorID, Match: pr.Matches}
}

// containsFold is a case-insensitive literal substring test.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Window is a 0-based page of a sorted result.
type Window struct {
	Page    int
	PerPage int
}

// Offset is the index of the window's first item.
func (w Window) Offset() int {
	return w.Page * w.PerPage
}

// Query composes a predicate with a window. Results are always sorted by
// creation time, newest first, ties broken by id descending.
type Query struct {
	Predicate Predicate
	Window    Window
}

// NewQuery starts a query for requester with the default predicate
// (public posts) and the first page of DefaultPerPage.
func NewQuery(requester string) *Query {
	return &Query{
		Predicate: Predicate{Requester: requester, Visibility: VisibilityPublic},
		Window:    Window{Page: 0, PerPage: DefaultPerPage},
	}
}

// ByAuthor restricts the query to one author.
func (q *Query) ByAuthor(userID string) *Query {
	q.Predicate.AuthorID = userID
	return q
}

// WithVisibility replaces the visibility term.
func (q *Query) WithVisibility(v Visibility) *Query {
	q.Predicate.Visibility = v
	return q
}

// Search adds a case-insensitive title substring term. Empty is ignored.
func (q *Query) Search(term string) *Query {
	q.Predicate.Search = strings.TrimSpace(term)
	return q
}

// Page sets the window. A negative page becomes 0 and a non-positive size
// becomes DefaultPerPage.
func (q *Query) Page(page, perPage int) *Query {
	if page < 0 {
		page = 0
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	q.Window = Window{Page: page, PerPage: perPage}
	return q
}

// NormalizePage maps a 1-based page parameter to a 0-based page. Absent,
// malformed, and non-positive values map to 0.
func NormalizePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0
	}
	return n - 1
}

// NormalizePerPage parses a page size. Absent, malformed, and non-positive
// values map to def; values above max are clamped when max is positive.
func NormalizePerPage(raw string, def, max int) int {
	if def <= 0 {
		def = DefaultPerPage
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		n = def
	}
	if max > 0 && n > max {
		n = max
	}
	return n
}
