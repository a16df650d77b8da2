package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wayfind-ai/wayfind/internal/types"
)

// EventType identifies the type of planner event.
type EventType string

const (
	// EventRunStarted indicates a planning run began.
	EventRunStarted EventType = "planner.run_started"

	// EventNodeExpanded indicates a frontier node was popped and expanded.
	EventNodeExpanded EventType = "planner.node_expanded"

	// EventChildPruned indicates a candidate child was discarded as
	// dominated by a similar, cheaper state.
	EventChildPruned EventType = "planner.child_pruned"

	// EventStaleDropped indicates a popped node was lazily deleted against
	// the closed set.
	EventStaleDropped EventType = "planner.stale_dropped"

	// EventStagnationDetected indicates the best frontier cost stopped
	// improving over the stagnation window.
	EventStagnationDetected EventType = "planner.stagnation_detected"

	// EventRunTerminated indicates the run reached a terminal phase.
	EventRunTerminated EventType = "planner.run_terminated"
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	return string(t)
}

// Event represents a planner event. Events are emitted throughout the run
// lifecycle to enable real-time monitoring of search decisions.
type Event struct {
	// Type identifies the event type.
	Type EventType `json:"type"`

	// RunID is the unique identifier of the planning run.
	RunID types.ID `json:"run_id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Payload contains type-specific event data.
	Payload map[string]any `json:"payload,omitempty"`
}

// EventEmitter publishes planner events to subscribers.
// Implementations must be thread-safe and support multiple concurrent
// subscribers.
type EventEmitter interface {
	// Emit publishes an event to all subscribers. Emit must be
	// non-blocking: it never waits for subscribers to consume events.
	Emit(ctx context.Context, event Event) error

	// Subscribe creates a new subscription and returns a channel for
	// receiving events and a cleanup function to unsubscribe.
	Subscribe(ctx context.Context) (<-chan Event, func())

	// Close shuts down the emitter and all subscriptions.
	Close() error
}

// DefaultEventEmitter implements EventEmitter using buffered channels.
// It handles slow consumers by dropping events for subscribers whose
// channels are full.
type DefaultEventEmitter struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	bufferSize  int
	closed      bool
}

// EventEmitterOption is a functional option for configuring
// DefaultEventEmitter.
type EventEmitterOption func(*DefaultEventEmitter)

// WithBufferSize sets the buffer size for subscriber channels.
// Default is 100.
func WithBufferSize(size int) EventEmitterOption {
	return func(e *DefaultEventEmitter) {
		if size > 0 {
			e.bufferSize = size
		}
	}
}

// NewDefaultEventEmitter creates a new DefaultEventEmitter.
func NewDefaultEventEmitter(opts ...EventEmitterOption) *DefaultEventEmitter {
	emitter := &DefaultEventEmitter{
		subscribers: make(map[string]chan Event),
		bufferSize:  100,
	}

	for _, opt := range opts {
		opt(emitter)
	}

	return emitter
}

// Emit publishes an event to all subscribers. If a subscriber's channel is
// full, the event is dropped for that subscriber so one slow consumer cannot
// block the run.
func (e *DefaultEventEmitter) Emit(ctx context.Context, event Event) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return fmt.Errorf("event emitter is closed")
	}

	for _, ch := range e.subscribers {
		select {
		case ch <- event:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Channel full, drop for this subscriber.
		}
	}

	return nil
}

// Subscribe creates a new subscription. The returned cleanup function must
// be called to unsubscribe and prevent leaks.
func (e *DefaultEventEmitter) Subscribe(ctx context.Context) (<-chan Event, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subscriberID := types.NewID().String()
	ch := make(chan Event, e.bufferSize)
	e.subscribers[subscriberID] = ch

	cleanup := func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		if subCh, exists := e.subscribers[subscriberID]; exists {
			delete(e.subscribers, subscriberID)
			close(subCh)
		}
	}

	return ch, cleanup
}

// Close shuts down the emitter and closes all subscriber channels.
func (e *DefaultEventEmitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}

	e.closed = true

	for id, ch := range e.subscribers {
		close(ch)
		delete(e.subscribers, id)
	}

	return nil
}

// SubscriberCount returns the current number of active subscribers.
func (e *DefaultEventEmitter) SubscriberCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subscribers)
}

// newEvent creates a planner event with the current timestamp.
func newEvent(eventType EventType, runID types.ID, payload map[string]any) Event {
	return Event{
		Type:      eventType,
		RunID:     runID,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// nopEmitter discards all events; used when no emitter is configured.
type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, Event) error { return nil }
func (nopEmitter) Subscribe(context.Context) (<-chan Event, func()) {
	ch := make(chan Event)
	close(ch)
	return ch, func() {}
}
func (nopEmitter) Close() error { return nil }
