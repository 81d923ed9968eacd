// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package models

import "time"

// Post is an immutable content item. It is stored as-is and never updated.
type Post struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	FilePath    string    `json:"file_path,omitempty"`
	IsPrivate   bool      `json:"is_private"`
	CreatedAt   time.Time `json:"created_at"`
}

// VisibleTo reports whether requester may see the post: public posts are
// visible to everyone, private posts only to their author.
func (p *Post) VisibleTo(requesterID string) bool {
	return !p.IsPrivate || (requesterID != "" && p.UserID == requesterID)
}

// HasFile reports whether the post references a stored file.
func (p *Post) HasFile() bool {
	return p.FilePath != ""
}

// AuthorSummary is the slice of user data joined into post results.
type AuthorSummary struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Username  string `json:"username"`
}

// FeedPost is the only shape in which posts leave the service, over HTTP
// and over the push channel alike. Fields outside this whitelist never leak.
type FeedPost struct {
	ID          string        `json:"_id"`
	FilePath    string        `json:"filePath,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	IsPrivate   bool          `json:"isPrivate"`
	CreatedAt   time.Time     `json:"createdAt"`
	UserData    AuthorSummary `json:"userData"`
}

// NewFeedPost projects a post joined with its author.
func NewFeedPost(p *Post, author AuthorSummary) FeedPost {
	return FeedPost{
		ID:          p.ID,
		FilePath:    p.FilePath,
		Title:       p.Title,
		Description: p.Description,
		IsPrivate:   p.IsPrivate,
		CreatedAt:   p.CreatedAt,
		UserData:    author,
	}
}

// FeedPage is one window of a feed query. Total counts every match of the
// query's filter, not just the items in this window. Posts whose author no
// longer exists are still counted in Total but omitted from Posts, so a
// window can hold fewer than perPage items even when later pages exist.
type FeedPage struct {
	Total int64      `json:"total"`
	Posts []FeedPost `json:"data"`
}
