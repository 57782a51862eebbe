// Package eventbus provides implementations of the EventBus interface.
// This package contains the synchronous event bus implementation.
package eventbus

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
)

// SyncEventBus is a synchronous implementation of the FilteringEventBus interface.
// Events are delivered on the publishing goroutine in subscription order.
//
// Thread-safety: This implementation is thread-safe. Multiple goroutines can
// publish events and subscribe/unsubscribe handlers concurrently.
//
// The frame driver publishes from the render loop, so handlers must return quickly
// and hand slow work (dialogs, file loading) to another goroutine.
type SyncEventBus struct {
	logger *slog.Logger

	// subscribers map event types to their subscriptions
	subscribers map[domain.EventType][]subscription

	// allSubscribers contains handlers that receive all events
	allSubscribers []subscription

	// mu protects subscribers, allSubscribers and closed
	mu sync.RWMutex

	idCounter atomic.Uint64
	published atomic.Uint64

	closed bool
}

// subscription is a single registered handler with an optional filter.
type subscription struct {
	id      domain.SubscriptionID
	filter  ports.EventFilter
	handler domain.EventHandler
}

// NewSyncEventBus creates a new synchronous event bus.
// A nil logger disables panic reporting.
func NewSyncEventBus(logger *slog.Logger) *SyncEventBus {
	if logger != nil {
		logger = logger.With(slog.String("component", "eventbus"))
	}
	return &SyncEventBus{
		logger:      logger,
		subscribers: make(map[domain.EventType][]subscription),
	}
}

// Publish delivers an event to the subscribers of its type, then to wildcard subscribers.
//
// Publishing on a closed bus does nothing. A panicking handler is recovered and
// logged; the remaining handlers still run.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	typed := bus.subscribers[event.Type()]
	targets := make([]subscription, 0, len(typed)+len(bus.allSubscribers))
	targets = append(targets, typed...)
	targets = append(targets, bus.allSubscribers...)
	bus.mu.RUnlock()

	bus.published.Add(1)
	for _, sub := range targets {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		bus.callHandler(sub.handler, event)
	}
}

func (bus *SyncEventBus) callHandler(handler domain.EventHandler, event domain.Event) {
	defer func() {
		if r := recover(); r != nil && bus.logger != nil {
			bus.logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())))
		}
	}()
	handler(event)
}

// Subscribe registers a handler for events of the specified type.
// Returns a unique subscription ID that can be used to unsubscribe.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(eventType, nil, handler)
}

// SubscribeFiltered registers a handler that only sees events accepted by filter.
func (bus *SyncEventBus) SubscribeFiltered(eventType domain.EventType, filter ports.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(eventType, filter, handler)
}

// SubscribeAll registers a handler that receives all events regardless of type.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("", nil, handler)
}

// add registers a subscription; an empty event type means every event.
func (bus *SyncEventBus) add(eventType domain.EventType, filter ports.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	prefix := "sub"
	if eventType == "" {
		prefix = "sub-all"
	}
	sub := subscription{
		id:      domain.SubscriptionID(fmt.Sprintf("%s-%d", prefix, bus.idCounter.Add(1))),
		filter:  filter,
		handler: handler,
	}

	if eventType == "" {
		bus.allSubscribers = append(bus.allSubscribers, sub)
	} else {
		bus.subscribers[eventType] = append(bus.subscribers[eventType], sub)
	}
	return sub.id
}

// Unsubscribe removes a previously registered event handler.
// If the subscription ID is invalid or already unsubscribed, this is a no-op.
// Delivery order of the remaining handlers is preserved.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for eventType, subs := range bus.subscribers {
		if i := indexOf(subs, id); i >= 0 {
			bus.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
	if i := indexOf(bus.allSubscribers, id); i >= 0 {
		bus.allSubscribers = append(bus.allSubscribers[:i:i], bus.allSubscribers[i+1:]...)
	}
}

func indexOf(subs []subscription, id domain.SubscriptionID) int {
	for i, sub := range subs {
		if sub.id == id {
			return i
		}
	}
	return -1
}

// HasSubscribers returns true if there are any active subscriptions for the given event type.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subscribers[eventType]) > 0 || len(bus.allSubscribers) > 0
}

// Close shuts down the event bus and clears all subscriptions.
//
// Returns an error if already closed.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return fmt.Errorf("event bus already closed")
	}

	bus.closed = true
	bus.subscribers = make(map[domain.EventType][]subscription)
	bus.allSubscribers = nil
	return nil
}

// SubscriberCount returns the number of active subscriptions.
// This counts both type-specific and wildcard subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	count := len(bus.allSubscribers)
	for _, subs := range bus.subscribers {
		count += len(subs)
	}
	return count
}

// PublishedCount returns how many events have been published since creation.
func (bus *SyncEventBus) PublishedCount() uint64 {
	return bus.published.Load()
}

var _ ports.FilteringEventBus = (*SyncEventBus)(nil)
