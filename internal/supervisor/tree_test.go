// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package supervisor

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/feedcast/internal/database"
	"github.com/tomtom215/feedcast/internal/fanout"
	"github.com/tomtom215/feedcast/internal/logging"
	"github.com/tomtom215/feedcast/internal/supervisor/services"
	"github.com/tomtom215/feedcast/internal/websocket"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

func TestSupervisorTreeConstruction(t *testing.T) {
	t.Run("creates hierarchical supervisor tree", func(t *testing.T) {
		tree, err := NewSupervisorTree(logging.NewSlogLogger(), TreeConfig{
			FailureThreshold: 5,
			FailureBackoff:   time.Second,
			ShutdownTimeout:  10 * time.Second,
		})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}
		if tree.Root() == nil {
			t.Error("root supervisor should not be nil")
		}
	})

	t.Run("applies default values for zero config", func(t *testing.T) {
		tree, err := NewSupervisorTree(nil, TreeConfig{})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}
		if tree.config != DefaultTreeConfig() {
			t.Errorf("config = %+v, want defaults", tree.config)
		}
	})
}

func TestSupervisorTreeLifecycle(t *testing.T) {
	tree, err := NewSupervisorTree(logging.NewSlogLogger(), TreeConfig{
		FailureBackoff:  100 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	data, messaging, api := newMockService("mock-data"), newMockService("mock-messaging"), newMockService("mock-api")
	tree.AddDataService(data)
	tree.AddMessagingService(messaging)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitUntil(t, func() bool {
		return data.startCount.Load() == 1 && messaging.startCount.Load() == 1 && api.startCount.Load() == 1
	})
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}

	for _, svc := range []*mockService{data, messaging, api} {
		if svc.stopCount.Load() != 1 {
			t.Errorf("%s stopped %d times", svc, svc.stopCount.Load())
		}
	}
	if report, err := tree.UnstoppedServiceReport(); err != nil || len(report) != 0 {
		t.Errorf("unstopped services: %v (%v)", report, err)
	}
}

func TestSupervisorRestartsFailedService(t *testing.T) {
	tree, err := NewSupervisorTree(logging.NewSlogLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	flaky := newMockService("flaky-bus")
	flaky.setFailCount(2)
	steady := newMockService("http")
	tree.AddMessagingService(flaky)
	tree.AddAPIService(steady)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitUntil(t, func() bool { return flaky.startCount.Load() >= 3 })
	if steady.startCount.Load() != 1 {
		t.Errorf("a messaging failure restarted the api layer: %d starts", steady.startCount.Load())
	}

	cancel()
	<-errCh
}

func TestRemoveMessagingService(t *testing.T) {
	tree, err := NewSupervisorTree(logging.NewSlogLogger(), TreeConfig{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	svc := newMockService("removable")
	token := tree.AddMessagingService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitUntil(t, func() bool { return svc.startCount.Load() == 1 })
	if err := tree.RemoveMessagingService(token); err != nil {
		t.Fatalf("remove: %v", err)
	}
	waitUntil(t, func() bool { return svc.stopCount.Load() == 1 })

	cancel()
	<-errCh
}

// TestFeedcastServicesUnderTree runs the real messaging and data services and
// checks that shutdown closes push sessions.
func TestFeedcastServicesUnderTree(t *testing.T) {
	db, err := database.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	registry := websocket.NewRegistry()
	bus := fanout.NewBus(fanout.NewEngine(registry, 2), logging.NewWatermillAdapter("bus"))
	defer bus.Close()

	tree, err := NewSupervisorTree(logging.NewSlogLogger(), TreeConfig{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	tree.AddDataService(services.NewContextService(db.String(), db))
	tree.AddMessagingService(services.NewContextService("session-registry", registry))
	tree.AddMessagingService(services.NewContextService("event-bus", bus))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	select {
	case <-bus.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("bus never subscribed")
	}

	sess := &closingSession{id: "s1", closed: make(chan struct{})}
	if err := registry.Admit("alice", sess); err != nil {
		t.Fatal(err)
	}

	cancel()
	<-errCh

	select {
	case <-sess.closed:
	default:
		t.Error("registry shutdown should close admitted sessions")
	}
	if registry.SessionCount() != 0 {
		t.Errorf("sessions after shutdown = %d", registry.SessionCount())
	}
}

type closingSession struct {
	id     string
	once   sync.Once
	closed chan struct{}
}

func (s *closingSession) ID() string { return s.id }
func (s *closingSession) Send([]byte) error { return nil }
func (s *closingSession) Close() { s.once.Do(func() { close(s.closed) }) }

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
