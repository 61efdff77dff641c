package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrBusClosed is returned by Publish once Drain has been called.
var ErrBusClosed = errors.New("event bus closed")

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

// BaseEvent carries the envelope every published event shares.
type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) Payload() interface{}  { return e.Data }

type Handler func(ctx context.Context, event Event) error

// EventBus fans events out to in-process handlers keyed by event type.
// Handlers registered with SubscribeAll receive every event after the typed ones.
type EventBus struct {
	mu       sync.RWMutex
	byType   map[string][]Handler
	wildcard []Handler
	closed   bool
	inflight sync.WaitGroup
	logger   *slog.Logger
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		byType: make(map[string][]Handler),
		logger: logger,
	}
}

func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.byType[eventType] = append(eb.byType[eventType], handler)
	eb.logger.Debug("EventBus: handler subscribed", "event_type", eventType, "handlers", len(eb.byType[eventType]))
}

func (eb *EventBus) SubscribeAll(handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.wildcard = append(eb.wildcard, handler)
	eb.logger.Debug("EventBus: wildcard handler subscribed", "handlers", len(eb.wildcard))
}

func (eb *EventBus) route(eventType string) []Handler {
	routed := make([]Handler, 0, len(eb.byType[eventType])+len(eb.wildcard))
	routed = append(routed, eb.byType[eventType]...)
	return append(routed, eb.wildcard...)
}

// Publish runs each handler in its own goroutine with a context detached from
// the caller's cancellation. Handler errors are logged, never returned.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	if eb.closed {
		eb.mu.RUnlock()
		return ErrBusClosed
	}
	routed := eb.route(event.EventType())
	eb.inflight.Add(len(routed))
	eb.mu.RUnlock()

	if len(routed) == 0 {
		return nil
	}

	detached := context.WithoutCancel(ctx)
	for _, h := range routed {
		go func(h Handler) {
			defer eb.inflight.Done()
			if err := h(detached, event); err != nil {
				eb.logger.Error("EventBus: async handler failed",
					"event_type", event.EventType(),
					"event_id", event.EventID(),
					"error", err)
			}
		}(h)
	}
	return nil
}

// PublishSync runs handlers in order on the caller's goroutine and stops at
// the first failure.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	eb.mu.RLock()
	routed := eb.route(event.EventType())
	eb.mu.RUnlock()

	for _, h := range routed {
		if err := h(ctx, event); err != nil {
			return fmt.Errorf("handle %s event %s: %w", event.EventType(), event.EventID(), err)
		}
	}
	return nil
}

// Drain stops accepting new events and waits for async handlers already
// running, or for ctx to end.
func (eb *EventBus) Drain(ctx context.Context) error {
	eb.mu.Lock()
	eb.closed = true
	eb.mu.Unlock()

	done := make(chan struct{})
	go func() {
		eb.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain event bus: %w", ctx.Err())
	}
}
