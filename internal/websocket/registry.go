// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/feedcast/internal/logging"
	"github.com/tomtom215/feedcast/internal/metrics"
)

// ErrSessionOwned is returned by Admit when the session is already admitted
// under a different user.
var ErrSessionOwned = errors.New("session already admitted for another user")

// Session is a live push connection as the Registry and fan-out see it.
type Session interface {
	// ID is unique for the life of the process.
	ID() string
	// Send queues msg without blocking.
	Send(msg []byte) error
	// Close disconnects the session. Safe to call more than once.
	Close()
}

// ShutdownReason is logged when the registry stops.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Registry maps user ids to their live sessions.
type Registry struct {
	mu       sync.RWMutex
	byUser   map[string][]Session
	owner    map[string]string // session id -> user id
	sessions int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string][]Session),
		owner:  make(map[string]string),
	}
}

// Admit appends s to userID's sessions, creating the entry if needed.
// Admitting a session twice for the same user is a no-op.
func (r *Registry) Admit(userID string, s Session) error {
	if userID == "" {
		return fmt.Errorf("admit %s: empty user id", s.ID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.owner[s.ID()]; ok {
		if current == userID {
			return nil
		}
		return fmt.Errorf("admit %s for %s: %w", s.ID(), userID, ErrSessionOwned)
	}

	r.byUser[userID] = append(r.byUser[userID], s)
	r.owner[s.ID()] = userID
	r.sessions++
	metrics.SetRegistryGauges(len(r.byUser), r.sessions)
	return nil
}

// Release removes the session from userID's list and drops the entry when
// the list empties. Unknown users or sessions are ignored. It reports
// whether anything was removed.
func (r *Registry) Release(userID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.releaseLocked(userID, sessionID)
}

func (r *Registry) releaseLocked(userID, sessionID string) bool {
	if owner, ok := r.owner[sessionID]; !ok || owner != userID {
		return false
	}

	list := r.byUser[userID]
	for i, s := range list {
		if s.ID() != sessionID {
			continue
		}
		// Copy instead of re-slicing so snapshots already handed out stay intact.
		next := make([]Session, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(r.byUser, userID)
		} else {
			r.byUser[userID] = next
		}
		delete(r.owner, sessionID)
		r.sessions--
		metrics.SetRegistryGauges(len(r.byUser), r.sessions)
		return true
	}
	return false
}

// SessionsFor returns a copy of userID's sessions in admission order, or nil
// when the user is offline.
func (r *Registry) SessionsFor(userID string) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byUser[userID]
	if len(list) == 0 {
		return nil
	}
	out := make([]Session, len(list))
	copy(out, list)
	return out
}

// All returns a copy of every admitted session.
func (r *Registry) All() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, 0, r.sessions)
	for _, list := range r.byUser {
		out = append(out, list...)
	}
	return out
}

// Online reports whether userID holds at least one session.
func (r *Registry) Online(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// UserCount is the number of users with at least one session.
func (r *Registry) UserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// SessionCount is the total number of admitted sessions.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions
}

// RunWithContext blocks until ctx is done, then closes every session. It is
// the registry's lifecycle under the supervisor.
func (r *Registry) RunWithContext(ctx context.Context) error {
	<-ctx.Done()

	closed := r.CloseAll()
	reason := ShutdownReasonContextCanceled
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "registry").
		Str("reason", string(reason)).
		Int("sessions_closed", closed).
		Msg("Session registry stopped")
	return ctx.Err()
}

// CloseAll closes every session and returns how many there were. Sessions
// release themselves, so the lock is not held while closing.
func (r *Registry) CloseAll() int {
	all := r.All()
	for _, s := range all {
		s.Close()
	}

	// Sessions that do not release themselves on Close are dropped here.
	r.mu.Lock()
	for _, sess := range all {
		if owner, ok := r.owner[sess.ID()]; ok {
			r.releaseLocked(owner, sess.ID())
		}
	}
	r.mu.Unlock()

	return len(all)
}
