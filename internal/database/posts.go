// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/feedcast/internal/models"
)

const (
	postKeyPrefix     = "post:"
	postTimeKeyPrefix = "post_time:"
	postUserKeyPrefix = "post_user:"
)

// PostFilter restricts which posts a scan returns. AuthorID, when set, scans
// only that author's index. Match, when set, is applied to every candidate.
type PostFilter struct {
	AuthorID string
	Match    func(*models.Post) bool
}

// accepts re-checks the author because ids containing ':' can share a prefix.
func (f PostFilter) accepts(p *models.Post) bool {
	if f.AuthorID != "" && p.UserID != f.AuthorID {
		return false
	}
	return f.Match == nil || f.Match(p)
}

func (f PostFilter) prefix() []byte {
	if f.AuthorID != "" {
		return []byte(postUserKeyPrefix + f.AuthorID + ":")
	}
	return []byte(postTimeKeyPrefix)
}

// PostRepository persists immutable posts.
type PostRepository struct {
	db *badger.DB
}

func createdKey(p *models.Post) string {
	ns := p.CreatedAt.UnixNano()
	if ns < 0 {
		ns = 0
	}
	return fmt.Sprintf("%019d:%s", ns, p.ID)
}

// Create stores p and its index entries in one transaction. An existing id
// is rejected.
func (r *PostRepository) Create(ctx context.Context, p *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == "" || p.UserID == "" {
		return errors.New("post id and user id are required")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal post: %w", err)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		key := []byte(postKeyPrefix + p.ID)
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("post %s already exists", p.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check post: %w", err)
		}

		ordered := createdKey(p)
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set post: %w", err)
		}
		if err := txn.Set([]byte(postTimeKeyPrefix+ordered), data); err != nil {
			return fmt.Errorf("set time index: %w", err)
		}
		if err := txn.Set([]byte(postUserKeyPrefix+p.UserID+":"+ordered), data); err != nil {
			return fmt.Errorf("set user index: %w", err)
		}
		return nil
	})
}

// FindByID returns the post or an error wrapping ErrNotFound.
func (r *PostRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var post models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(postKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get post: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &post)
		})
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Find returns up to limit posts matching f, newest first, skipping the
// first offset matches. A non-positive limit returns nothing.
func (r *PostRepository) Find(ctx context.Context, f PostFilter, offset, limit int) ([]*models.Post, error) {
	if limit <= 0 {
		return []*models.Post{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	posts := make([]*models.Post, 0, limit)
	skipped := 0
	err := r.scan(ctx, f, func(p *models.Post) bool {
		if skipped < offset {
			skipped++
			return true
		}
		posts = append(posts, p)
		return len(posts) < limit
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Count returns the number of posts matching f.
func (r *PostRepository) Count(ctx context.Context, f PostFilter) (int64, error) {
	var n int64
	err := r.scan(ctx, f, func(*models.Post) bool {
		n++
		return true
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// scan walks the index selected by f from newest to oldest, calling visit
// for every accepted post until visit returns false.
func (r *PostRepository) scan(ctx context.Context, f PostFilter, visit func(*models.Post) bool) error {
	prefix := f.prefix()

	return r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration must start past the last key under prefix.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var post models.Post
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &post)
			}); err != nil {
				return fmt.Errorf("decode post %q: %w", it.Item().Key(), err)
			}

			if !f.accepts(&post) {
				continue
			}
			if !visit(&post) {
				return nil
			}
		}
		return nil
	})
}
