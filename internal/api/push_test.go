// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gorilla "github.com/gorilla/websocket"

	"github.com/tomtom215/feedcast/internal/fanout"
	"github.com/tomtom215/feedcast/internal/logging"
	"github.com/tomtom215/feedcast/internal/models"
	"github.com/tomtom215/feedcast/internal/websocket"
)

type busPublisher struct{ bus *fanout.Bus }

func (p busPublisher) Publish(ctx context.Context, ev fanout.Event) error {
	return p.bus.Publish(ctx, ev)
}

// liveEnv serves the full router over TCP with a running event bus.
func liveEnv(t *testing.T) (*testEnv, *httptest.Server) {
	t.Helper()

	pub := &busPublisher{}
	env := setupEnv(t, envOptions{publisher: pub})
	pub.bus = fanout.NewBus(fanout.NewEngine(env.registry, 4), logging.NewWatermillAdapter("bus"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = pub.bus.RunWithContext(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = pub.bus.Close()
	})
	select {
	case <-pub.bus.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("bus never subscribed")
	}

	server := httptest.NewServer(env.handler)
	t.Cleanup(server.Close)
	return env, server
}

func dialPush(t *testing.T, env *testEnv, server *httptest.Server, userID string) *gorilla.Conn {
	t.Helper()
	header := http.Header{}
	header.Set(websocket.TokenHeader, env.token(t, userID))
	conn, resp, err := gorilla.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", header)
	if err != nil {
		t.Fatalf("dial as %s: %v", userID, err)
	}
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitSessions(t *testing.T, env *testEnv, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for env.registry.SessionCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("sessions = %d, want %d", env.registry.SessionCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type pushFrame struct {
	Type string          `json:"type"`
	Data models.FeedPost `json:"data"`
}

func readFrame(t *testing.T, conn *gorilla.Conn) (pushFrame, bool) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return pushFrame{}, false
	}
	var f pushFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("decode frame %s: %v", raw, err)
	}
	return f, true
}

func createOver(t *testing.T, env *testEnv, server *httptest.Server, userID, body string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/v1/posts", bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+env.token(t, userID))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
}

func TestNewPostReachesPushSessions(t *testing.T) {
	env, server := liveEnv(t)

	alicePhone := dialPush(t, env, server, "alice")
	aliceLaptop := dialPush(t, env, server, "alice")
	bob := dialPush(t, env, server, "bob")
	waitSessions(t, env, 3)

	createOver(t, env, server, "alice", `{"title":"Public hello"}`)
	for name, conn := range map[string]*gorilla.Conn{"alice phone": alicePhone, "alice laptop": aliceLaptop, "bob": bob} {
		f, ok := readFrame(t, conn)
		if !ok {
			t.Fatalf("%s received nothing", name)
		}
		if f.Type != websocket.MessageTypeNewPost || f.Data.Title != "Public hello" || f.Data.UserData.ID != "alice" {
			t.Errorf("%s frame = %+v", name, f)
		}
	}

	createOver(t, env, server, "alice", `{"title":"Private note","isPrivate":true}`)
	for name, conn := range map[string]*gorilla.Conn{"alice phone": alicePhone, "alice laptop": aliceLaptop} {
		if f, ok := readFrame(t, conn); !ok || f.Data.Title != "Private note" {
			t.Errorf("%s should receive the private post, got %+v", name, f)
		}
	}
	if f, ok := readFrame(t, bob); ok {
		t.Errorf("bob received a private post: %+v", f)
	}
}

func TestPrivatePostWithAuthorOffline(t *testing.T) {
	env, server := liveEnv(t)

	bob := dialPush(t, env, server, "bob")
	waitSessions(t, env, 1)

	createOver(t, env, server, "alice", `{"title":"Nobody sees this","isPrivate":true}`)
	if f, ok := readFrame(t, bob); ok {
		t.Errorf("bob received %+v", f)
	}
}
