// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestPostVisibleTo(t *testing.T) {
	tests := []struct {
		name      string
		private   bool
		requester string
		want      bool
	}{
		{"public to stranger", false, "bob", true},
		{"public to anonymous", false, "", true},
		{"private to author", true, "alice", true},
		{"private to stranger", true, "bob", false},
		{"private to anonymous", true, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Post{UserID: "alice", IsPrivate: tt.private}
			if got := p.VisibleTo(tt.requester); got != tt.want {
				t.Errorf("VisibleTo(%q) = %v, want %v", tt.requester, got, tt.want)
			}
		})
	}
}

func TestFeedPostProjection(t *testing.T) {
	u := &User{ID: "u1", FirstName: "Ada", LastName: "Lovelace", Username: "ada", Email: "ada@example.com", Verified: true}
	p := &Post{ID: "p1", UserID: "u1", Title: "hello", IsPrivate: true, CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}

	data, err := json.Marshal(NewFeedPost(p, u.Summary()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)

	for _, want := range []string{`"_id":"p1"`, `"isPrivate":true`, `"userData":{"_id":"u1","firstname":"Ada","lastname":"Lovelace","username":"ada"}`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
	for _, leak := range []string{"email", "verified", "user_id"} {
		if strings.Contains(out, leak) {
			t.Errorf("projection leaked %q: %s", leak, out)
		}
	}
}
