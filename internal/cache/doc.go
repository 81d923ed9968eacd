// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

/*
Package cache provides a bounded LRU cache with TTL expiry and a read-through
cache for author summaries.

Feed queries join every page of posts with the authors who wrote them. The
same handful of authors appear on most pages, so AuthorCache keeps recently
resolved summaries in memory and only asks the user repository for ids it
has not seen within the TTL.

Usage:

	authors := cache.NewAuthorCache(db.Users, 10000, 30*time.Second)
	engine := feed.NewEngine(db.Posts, authors, objects, feed.Options{})

Unknown ids are never cached, so a user provisioned after a miss becomes
visible on the next query. Profile changes become visible once the cached
entry expires.

Thread Safety:

LRU and AuthorCache are safe for concurrent use.
*/
package cache
