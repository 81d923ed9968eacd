// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package cache

import (
	"context"
	"time"

	"github.com/tomtom215/feedcast/internal/metrics"
	"github.com/tomtom215/feedcast/internal/models"
)

// SummaryLoader resolves author summaries in bulk. Unknown ids are absent
// from the result.
type SummaryLoader interface {
	Summaries(ctx context.Context, ids []string) (map[string]models.AuthorSummary, error)
}

// AuthorCache is a read-through cache in front of a SummaryLoader.
type AuthorCache struct {
	loader  SummaryLoader
	entries *LRU[models.AuthorSummary]
}

// NewAuthorCache wraps loader. Non-positive capacity or ttl select the
// defaults.
func NewAuthorCache(loader SummaryLoader, capacity int, ttl time.Duration) *AuthorCache {
	return &AuthorCache{loader: loader, entries: NewLRU[models.AuthorSummary](capacity, ttl)}
}

// Summaries serves cached ids from memory and loads the rest in one call.
func (c *AuthorCache) Summaries(ctx context.Context, ids []string) (map[string]models.AuthorSummary, error) {
	out := make(map[string]models.AuthorSummary, len(ids))
	var missing []string
	for _, id := range ids {
		if _, seen := out[id]; seen {
			continue
		}
		if s, ok := c.entries.Get(id); ok {
			out[id] = s
			continue
		}
		missing = append(missing, id)
	}
	metrics.RecordAuthorCache(len(out), len(missing))

	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := c.loader.Summaries(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, s := range loaded {
		c.entries.Add(id, s)
		out[id] = s
	}
	return out, nil
}

// Invalidate drops id so the next lookup reloads it.
func (c *AuthorCache) Invalidate(id string) {
	c.entries.Remove(id)
}
