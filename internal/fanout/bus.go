// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package fanout

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/feedcast/internal/logging"
	"github.com/tomtom215/feedcast/internal/metrics"
)

// Topic carries every post event.
const Topic = "posts.events"

const metadataRequestID = "request_id"

// Bus decouples publishers from delivery. Publish returns as soon as the
// event is handed to the in-process pub/sub; Run consumes events and hands
// them to the Engine. Nothing is persisted: events published while no
// consumer is subscribed are dropped.
type Bus struct {
	pubsub *gochannel.GoChannel
	engine *Engine
	logger watermill.LoggerAdapter

	readyOnce sync.Once
	ready     chan struct{}
}

// NewBus creates the pub/sub. A nil logger falls back to watermill's
// standard logger.
func NewBus(engine *Engine, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 1024,
		}, logger),
		engine: engine,
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// Publish enqueues ev. The error only reports a closed bus or an encoding
// failure; delivery outcomes are never reported back.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		metrics.BusPublishFailures.Inc()
		return fmt.Errorf("encode event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set(metadataRequestID, id)
	}

	if err := b.pubsub.Publish(Topic, msg); err != nil {
		metrics.BusPublishFailures.Inc()
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Ready is closed once Run has subscribed.
func (b *Bus) Ready() <-chan struct{} {
	return b.ready
}

// RunWithContext consumes events until ctx is done. Every message is acked,
// including ones that fail to decode, so nothing is redelivered.
func (b *Bus) RunWithContext(ctx context.Context) error {
	messages, err := b.pubsub.Subscribe(ctx, Topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", Topic, err)
	}
	b.readyOnce.Do(func() { close(b.ready) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.handle(msg)
		}
	}
}

func (b *Bus) handle(msg *message.Message) {
	defer msg.Ack()

	// Delivery must not inherit the publishing request's cancellation.
	ctx := context.Background()
	if id := msg.Metadata.Get(metadataRequestID); id != "" {
		ctx = logging.ContextWithRequestID(ctx, id)
	}

	var ev Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		b.logger.Error("Dropping undecodable event", err, watermill.LogFields{"message_uuid": msg.UUID})
		return
	}

	report := b.engine.Deliver(ctx, ev)
	if report.Targets > 0 {
		logging.Ctx(ctx).Debug().
			Str("kind", ev.Kind).
			Str("target", ev.Target).
			Int("sent", report.Sent).
			Int("failed", report.Failed).
			Msg("Event delivered")
	}
}

// Close shuts the pub/sub down. Subsequent publishes fail.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
