// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/tomtom215/feedcast/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

type fakeSession struct {
	id     string
	mu     sync.Mutex
	frames [][]byte
	closed atomic.Bool
}

func newFakeSession(id string) *fakeSession { return &fakeSession{id: id} }

func (f *fakeSession) ID() string { return f.id }

func (f *fakeSession) Send(msg []byte) error {
	if f.closed.Load() {
		return ErrClientClosed
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, msg)
	return nil
}

func (f *fakeSession) Close() { f.closed.Store(true) }

func ids(sessions []Session) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.ID()
	}
	return out
}

func TestRegistryAdmitAndSessionsFor(t *testing.T) {
	r := NewRegistry()

	if got := r.SessionsFor("alice"); len(got) != 0 {
		t.Fatalf("offline user should have no sessions, got %v", ids(got))
	}

	for _, id := range []string{"s1", "s2", "s3"} {
		if err := r.Admit("alice", newFakeSession(id)); err != nil {
			t.Fatalf("Admit(%s) error = %v", id, err)
		}
	}

	got := ids(r.SessionsFor("alice"))
	want := []string{"s1", "s2", "s3"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("SessionsFor = %v, want %v (admission order)", got, want)
	}
	if !r.Online("alice") || r.Online("bob") {
		t.Error("Online reports wrong state")
	}
	if r.UserCount() != 1 || r.SessionCount() != 3 {
		t.Errorf("counts = %d users / %d sessions, want 1 / 3", r.UserCount(), r.SessionCount())
	}
}

func TestRegistryAdmitSameSessionTwice(t *testing.T) {
	r := NewRegistry()
	s := newFakeSession("s1")

	if err := r.Admit("alice", s); err != nil {
		t.Fatal(err)
	}
	if err := r.Admit("alice", s); err != nil {
		t.Errorf("re-admit for same user should be a no-op, got %v", err)
	}
	if r.SessionCount() != 1 {
		t.Errorf("SessionCount = %d, want 1", r.SessionCount())
	}

	err := r.Admit("bob", s)
	if !errors.Is(err, ErrSessionOwned) {
		t.Errorf("Admit under another user error = %v, want ErrSessionOwned", err)
	}
	if r.Online("bob") {
		t.Error("bob must not gain the session")
	}
}

func TestRegistryAdmitRejectsEmptyUser(t *testing.T) {
	r := NewRegistry()
	if err := r.Admit("", newFakeSession("s1")); err == nil {
		t.Error("expected error for empty user id")
	}
}

func TestRegistryRelease(t *testing.T) {
	r := NewRegistry()
	_ = r.Admit("alice", newFakeSession("s1"))
	_ = r.Admit("alice", newFakeSession("s2"))

	if !r.Release("alice", "s1") {
		t.Error("Release of admitted session should report true")
	}
	if got := ids(r.SessionsFor("alice")); fmt.Sprint(got) != "[s2]" {
		t.Errorf("SessionsFor = %v, want [s2]", got)
	}

	if r.Release("alice", "s1") {
		t.Error("double release should be a no-op")
	}
	if r.Release("bob", "s2") {
		t.Error("release under the wrong user should be a no-op")
	}
	if r.Release("nobody", "nothing") {
		t.Error("release of unknown user should be a no-op")
	}

	r.Release("alice", "s2")
	if r.Online("alice") || r.UserCount() != 0 {
		t.Error("entry should be removed when its last session is released")
	}
}

func TestRegistrySnapshotsAreIndependent(t *testing.T) {
	r := NewRegistry()
	_ = r.Admit("alice", newFakeSession("s1"))
	_ = r.Admit("alice", newFakeSession("s2"))

	snap := r.SessionsFor("alice")
	all := r.All()
	r.Release("alice", "s1")
	_ = r.Admit("alice", newFakeSession("s3"))

	if fmt.Sprint(ids(snap)) != "[s1 s2]" {
		t.Errorf("snapshot changed after mutation: %v", ids(snap))
	}
	if len(all) != 2 {
		t.Errorf("All snapshot changed after mutation: %v", ids(all))
	}
}

func TestRegistryAll(t *testing.T) {
	r := NewRegistry()
	_ = r.Admit("alice", newFakeSession("a1"))
	_ = r.Admit("alice", newFakeSession("a2"))
	_ = r.Admit("carol", newFakeSession("c1"))

	if got := len(r.All()); got != 3 {
		t.Errorf("All() returned %d sessions, want 3", got)
	}
}

func TestRegistryRunWithContextClosesSessions(t *testing.T) {
	r := NewRegistry()
	s1, s2 := newFakeSession("s1"), newFakeSession("s2")
	_ = r.Admit("alice", s1)
	_ = r.Admit("bob", s2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.RunWithContext(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunWithContext did not return after cancel")
	}

	if !s1.closed.Load() || !s2.closed.Load() {
		t.Error("all sessions should be closed on shutdown")
	}
	if r.SessionCount() != 0 || r.UserCount() != 0 {
		t.Error("registry should be empty after shutdown")
	}
}

func TestRegistryConcurrentAdmitRelease(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for u := 0; u < 8; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", u)
			for i := 0; i < 100; i++ {
				id := fmt.Sprintf("%s-s%d", user, i)
				_ = r.Admit(user, newFakeSession(id))
				_ = r.SessionsFor(user)
				_ = r.All()
				r.Release(user, id)
			}
		}(u)
	}
	wg.Wait()

	if r.SessionCount() != 0 || r.UserCount() != 0 {
		t.Errorf("expected empty registry, got %d users / %d sessions", r.UserCount(), r.SessionCount())
	}
}

// registryOp is one step of a generated admit/release sequence.
type registryOp struct {
	Admit   bool
	User    int
	Session int
}

func genRegistryOp() gopter.Gen {
	return gopter.CombineGens(gen.Bool(), gen.IntRange(0, 3), gen.IntRange(0, 9)).
		Map(func(v []interface{}) registryOp {
			return registryOp{Admit: v[0].(bool), User: v[1].(int), Session: v[2].(int)}
		})
}

func TestRegistryProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("a session is never held by two users", prop.ForAll(
		func(ops []registryOp) bool {
			r := NewRegistry()
			sessions := make(map[int]*fakeSession)
			for _, op := range ops {
				s, ok := sessions[op.Session]
				if !ok {
					s = newFakeSession(fmt.Sprintf("s%d", op.Session))
					sessions[op.Session] = s
				}
				user := fmt.Sprintf("u%d", op.User)
				if op.Admit {
					_ = r.Admit(user, s)
				} else {
					r.Release(user, s.ID())
				}

				seen := make(map[string]string)
				for u := 0; u < 4; u++ {
					name := fmt.Sprintf("u%d", u)
					for _, held := range r.SessionsFor(name) {
						if other, dup := seen[held.ID()]; dup && other != name {
							return false
						}
						seen[held.ID()] = name
					}
				}
				if len(seen) != r.SessionCount() {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genRegistryOp()),
	))

	properties.Property("release after admit removes exactly one session", prop.ForAll(
		func(user int, n int) bool {
			r := NewRegistry()
			name := fmt.Sprintf("u%d", user)
			for i := 0; i < n; i++ {
				_ = r.Admit(name, newFakeSession(fmt.Sprintf("s%d", i)))
			}
			before := len(r.SessionsFor(name))
			r.Release(name, "s0")
			after := len(r.SessionsFor(name))
			r.Release(name, "s0")
			again := len(r.SessionsFor(name))
			return after == before-1 && again == after && r.Online(name) == (n > 1)
		},
		gen.IntRange(0, 100),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}
