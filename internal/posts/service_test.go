// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package posts

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedcast/internal/database"
	"github.com/tomtom215/feedcast/internal/fanout"
	"github.com/tomtom215/feedcast/internal/logging"
	"github.com/tomtom215/feedcast/internal/models"
	"github.com/tomtom215/feedcast/internal/validation"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []fanout.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev fanout.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func setupService(t *testing.T) (*Service, *database.DB, *recordingPublisher) {
	t.Helper()
	db, err := database.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Users.Upsert(context.Background(), &models.User{
		ID: "bob", FirstName: "Bob", LastName: "Builder", Username: "bob", Verified: true,
	}); err != nil {
		t.Fatal(err)
	}

	pub := &recordingPublisher{}
	svc := NewService(db.Posts, db.Users, pub)
	svc.now = func() time.Time { return time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "post-1" }
	return svc, db, pub
}

func TestCreatePublicPost(t *testing.T) {
	svc, db, pub := setupService(t)
	ctx := context.Background()

	got, err := svc.Create(ctx, "bob", CreateInput{Title: "  Hello world  ", Description: "first", FilePath: "/cat.png"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got.ID != "post-1" || got.Title != "Hello world" || got.FilePath != "cat.png" || got.IsPrivate {
		t.Errorf("result = %+v", got)
	}
	if got.UserData != (models.AuthorSummary{ID: "bob", FirstName: "Bob", LastName: "Builder", Username: "bob"}) {
		t.Errorf("userData = %+v", got.UserData)
	}

	stored, err := db.Posts.FindByID(ctx, "post-1")
	if err != nil {
		t.Fatalf("post not stored: %v", err)
	}
	if stored.UserID != "bob" || !stored.CreatedAt.Equal(got.CreatedAt) {
		t.Errorf("stored = %+v", stored)
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Kind != EventNewPost || ev.Target != fanout.TargetBroadcast {
		t.Errorf("event = %s -> %s", ev.Kind, ev.Target)
	}
	var payload models.FeedPost
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.ID != "post-1" || payload.UserData.ID != "bob" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestCreatePrivatePostTargetsAuthor(t *testing.T) {
	svc, _, pub := setupService(t)

	if _, err := svc.Create(context.Background(), "bob", CreateInput{Title: "Secret diary", IsPrivate: true}); err != nil {
		t.Fatal(err)
	}
	if len(pub.events) != 1 || pub.events[0].Target != fanout.UserTarget("bob") {
		t.Errorf("events = %+v, want one targeted at user:bob", pub.events)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, db, pub := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"missing title", CreateInput{}},
		{"blank title", CreateInput{Title: "    "}},
		{"short title", CreateInput{Title: "ab"}},
		{"escaping file path", CreateInput{Title: "valid", FilePath: "../../etc/passwd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "bob", tt.input)
			var verr *validation.RequestError
			if !errors.As(err, &verr) {
				t.Errorf("Create error = %v, want validation error", err)
			}
		})
	}

	if n, _ := db.Posts.Count(ctx, database.PostFilter{}); n != 0 {
		t.Errorf("invalid input stored %d posts", n)
	}
	if len(pub.events) != 0 {
		t.Error("invalid input must not publish")
	}
}

func TestCreateUnknownAuthor(t *testing.T) {
	svc, _, pub := setupService(t)
	if _, err := svc.Create(context.Background(), "ghost", CreateInput{Title: "hello"}); !errors.Is(err, ErrAuthorNotFound) {
		t.Errorf("error = %v, want ErrAuthorNotFound", err)
	}
	if len(pub.events) != 0 {
		t.Error("failed create must not publish")
	}
}

func TestCreateSurvivesPublishFailure(t *testing.T) {
	svc, db, pub := setupService(t)
	pub.err = errors.New("bus closed")

	if _, err := svc.Create(context.Background(), "bob", CreateInput{Title: "still saved"}); err != nil {
		t.Fatalf("publish failure must not fail create: %v", err)
	}
	if _, err := db.Posts.FindByID(context.Background(), "post-1"); err != nil {
		t.Errorf("post should be stored: %v", err)
	}
}

func TestCreateWithoutPublisher(t *testing.T) {
	_, db, _ := setupService(t)
	svc := NewService(db.Posts, db.Users, nil)
	if _, err := svc.Create(context.Background(), "bob", CreateInput{Title: "quiet post"}); err != nil {
		t.Fatal(err)
	}
}

func TestCreateInputIgnoresBodyFilePath(t *testing.T) {
	var in CreateInput
	if err := json.Unmarshal([]byte(`{"title":"photo","isPrivate":true,"filePath":"cat.png"}`), &in); err != nil {
		t.Fatal(err)
	}
	if in.FilePath != "" || in.Title != "photo" || !in.IsPrivate {
		t.Errorf("decoded = %+v, want filePath left empty", in)
	}
}
