// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package cache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/feedcast/internal/models"
)

type countingLoader struct {
	mu    sync.Mutex
	users map[string]models.AuthorSummary
	calls [][]string
	err   error
}

func (l *countingLoader) Summaries(_ context.Context, ids []string) (map[string]models.AuthorSummary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	requested := append([]string(nil), ids...)
	sort.Strings(requested)
	l.calls = append(l.calls, requested)
	if l.err != nil {
		return nil, l.err
	}
	out := make(map[string]models.AuthorSummary)
	for _, id := range ids {
		if s, ok := l.users[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func newLoader() *countingLoader {
	return &countingLoader{users: map[string]models.AuthorSummary{
		"alice": {ID: "alice", FirstName: "Alice", LastName: "Smith", Username: "alice"},
		"bob":   {ID: "bob", FirstName: "Bob", LastName: "Builder", Username: "bob"},
	}}
}

func TestAuthorCache_ReadThrough(t *testing.T) {
	loader := newLoader()
	c := NewAuthorCache(loader, 100, time.Minute)
	ctx := context.Background()

	got, err := c.Summaries(ctx, []string{"alice", "bob", "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got["bob"].LastName != "Builder" {
		t.Errorf("first lookup = %+v", got)
	}

	got, err = c.Summaries(ctx, []string{"bob", "alice"})
	if err != nil || len(got) != 2 {
		t.Fatalf("second lookup = %+v, %v", got, err)
	}
	if len(loader.calls) != 1 {
		t.Errorf("loader called %d times, want 1", len(loader.calls))
	}
}

func TestAuthorCache_LoadsOnlyMissing(t *testing.T) {
	loader := newLoader()
	c := NewAuthorCache(loader, 100, time.Minute)
	ctx := context.Background()

	if _, err := c.Summaries(ctx, []string{"alice"}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Summaries(ctx, []string{"alice", "bob"}); err != nil {
		t.Fatal(err)
	}
	if len(loader.calls) != 2 || len(loader.calls[1]) != 1 || loader.calls[1][0] != "bob" {
		t.Errorf("calls = %v, want second call for bob only", loader.calls)
	}
}

func TestAuthorCache_UnknownNotCached(t *testing.T) {
	loader := newLoader()
	c := NewAuthorCache(loader, 100, time.Minute)
	ctx := context.Background()

	got, _ := c.Summaries(ctx, []string{"carol"})
	if len(got) != 0 {
		t.Errorf("unknown id resolved: %+v", got)
	}

	loader.mu.Lock()
	loader.users["carol"] = models.AuthorSummary{ID: "carol", Username: "carol"}
	loader.mu.Unlock()

	got, _ = c.Summaries(ctx, []string{"carol"})
	if got["carol"].Username != "carol" {
		t.Error("newly provisioned user should resolve on the next lookup")
	}
}

func TestAuthorCache_Invalidate(t *testing.T) {
	loader := newLoader()
	c := NewAuthorCache(loader, 100, time.Minute)
	ctx := context.Background()

	_, _ = c.Summaries(ctx, []string{"alice"})
	c.Invalidate("alice")
	_, _ = c.Summaries(ctx, []string{"alice"})
	if len(loader.calls) != 2 {
		t.Errorf("loader called %d times, want 2", len(loader.calls))
	}
}

func TestAuthorCache_LoaderError(t *testing.T) {
	loader := newLoader()
	loader.err = errors.New("disk gone")
	c := NewAuthorCache(loader, 100, time.Minute)

	if _, err := c.Summaries(context.Background(), []string{"alice"}); !errors.Is(err, loader.err) {
		t.Errorf("error = %v, want loader error", err)
	}
}
