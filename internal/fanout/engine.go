// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

// Package fanout decides which live sessions receive an event and delivers
// it to them.
//
// A private event targets only its author's sessions; anything else is a
// broadcast to every admitted session. Delivery is best effort: each session
// is sent to independently, a failing session is logged and counted, and no
// delivery error ever reaches the publisher.
package fanout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedcast/internal/logging"
	"github.com/tomtom215/feedcast/internal/metrics"
	"github.com/tomtom215/feedcast/internal/websocket"
)

// TargetBroadcast addresses every admitted session.
const TargetBroadcast = "broadcast"

const userTargetPrefix = "user:"

// UserTarget addresses every session of userID.
func UserTarget(userID string) string {
	return userTargetPrefix + userID
}

// ParseTarget splits a target into broadcast or a user id. ok is false for
// anything malformed, including "user:" with no id.
func ParseTarget(target string) (userID string, broadcast bool, ok bool) {
	if target == TargetBroadcast {
		return "", true, true
	}
	if id, found := strings.CutPrefix(target, userTargetPrefix); found && id != "" {
		return id, false, true
	}
	return "", false, false
}

// Event is one delivery request. It lives only as long as its delivery.
type Event struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
	Target  string          `json:"target"`
}

// NewEvent serializes payload and resolves the target from the visibility
// flag: private events go to the author only.
func NewEvent(kind string, payload interface{}, authorID string, isPrivate bool) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	target := TargetBroadcast
	if isPrivate {
		target = UserTarget(authorID)
	}
	return Event{Kind: kind, Payload: raw, Target: target}, nil
}

// SessionSource is the read side of the session registry.
type SessionSource interface {
	SessionsFor(userID string) []websocket.Session
	All() []websocket.Session
}

// Report summarizes one delivery. It is informational; callers are not
// expected to act on failures.
type Report struct {
	Targets int
	Sent    int
	Failed  int
}

// Engine delivers events to sessions.
type Engine struct {
	sessions SessionSource
	workers  int
}

// NewEngine caps concurrent sends per event at workers (minimum 1).
func NewEngine(sessions SessionSource, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{sessions: sessions, workers: workers}
}

// Publish builds the event for (kind, payload, author, visibility) and
// delivers it synchronously.
func (e *Engine) Publish(ctx context.Context, kind string, payload interface{}, authorID string, isPrivate bool) Report {
	ev, err := NewEvent(kind, payload, authorID, isPrivate)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("kind", kind).Msg("Dropping undeliverable event")
		return Report{}
	}
	return e.Deliver(ctx, ev)
}

// Deliver snapshots the target sessions and sends the frame to each of them
// concurrently. An empty target set is a silent no-op.
func (e *Engine) Deliver(ctx context.Context, ev Event) Report {
	userID, broadcast, ok := ParseTarget(ev.Target)
	if !ok {
		logging.Ctx(ctx).Warn().Str("target", ev.Target).Str("kind", ev.Kind).Msg("Dropping event with malformed target")
		return Report{}
	}

	var targets []websocket.Session
	label := "user"
	if broadcast {
		targets = e.sessions.All()
		label = "broadcast"
	} else {
		targets = e.sessions.SessionsFor(userID)
	}
	metrics.FanoutEvents.WithLabelValues(ev.Kind, label).Inc()

	if len(targets) == 0 {
		return Report{}
	}

	frame, err := json.Marshal(websocket.Message{Type: ev.Kind, Data: ev.Payload})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("kind", ev.Kind).Msg("Failed to encode frame")
		return Report{Targets: len(targets), Failed: len(targets)}
	}

	start := time.Now()
	var sent, failed atomic.Int64
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.workers)

	for _, s := range targets {
		sem <- struct{}{}
		wg.Add(1)
		go func(s websocket.Session) {
			defer func() {
				<-sem
				wg.Done()
			}()
			if err := sendIsolated(s, frame); err != nil {
				failed.Add(1)
				metrics.RecordDelivery(label, err)
				logging.Ctx(ctx).Debug().Err(err).Str("session_id", s.ID()).Str("kind", ev.Kind).Msg("Delivery to session failed")
				return
			}
			sent.Add(1)
			metrics.RecordDelivery(label, nil)
		}(s)
	}
	wg.Wait()
	metrics.FanoutDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	return Report{Targets: len(targets), Sent: int(sent.Load()), Failed: int(failed.Load())}
}

// sendIsolated turns a panicking session into an ordinary failure so one bad
// session cannot take down the others.
func sendIsolated(s websocket.Session, frame []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("session send panicked: %v", r)
		}
	}()
	return s.Send(frame)
}
