// Package bus implements the synchronous named-topic event bus that decouples
// the NLU pipeline, dispatcher, and reflection observer.
//
// Delivery is deliberately synchronous and in subscriber-registration order on
// the publisher's goroutine: the bus is a decoupling seam, not a queue. A
// subscriber that panics is isolated and logged; it never prevents delivery to
// later subscribers or surfaces to the publisher.
package bus

import (
	"sync"
	"sync/atomic"
	"time"

	"aura/internal/logging"
)

// Well-known topics published by the core. Hosts may define more.
const (
	TopicEntitiesDetected   = "nlu.entities.detected"
	TopicIntentResolved     = "nlu.intent"
	TopicNLUError           = "nlu.error"
	TopicDispatchResult     = "dispatch.result"
	TopicReflectionRecorded = "reflection.recorded"
)

// Event is what subscribers receive.
type Event struct {
	// Seq is a monotonically increasing sequence number across all topics.
	Seq uint64

	Topic     string
	Timestamp time.Time

	// Data is topic-specific payload. Subscribers type-assert.
	Data interface{}
}

// Handler processes a delivered event. It must not block for long; delivery
// happens inline on the publisher's goroutine.
type Handler func(Event)

// Bus is a synchronous topic -> ordered-subscriber-list pub/sub hub.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler

	sequence  atomic.Uint64
	published atomic.Uint64
	recovered atomic.Uint64
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[string][]Handler),
	}
}

// Subscribe appends a handler to the topic's delivery list.
// Handlers are invoked in the order they were registered.
func (b *Bus) Subscribe(topic string, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], handler)
	count := len(b.subscribers[topic])
	b.mu.Unlock()

	logging.BusDebug("subscribe topic=%s handlers=%d", topic, count)
}

// Publish delivers data to every subscriber of topic, in registration order.
// A topic with no subscribers is a no-op, not an error.
func (b *Bus) Publish(topic string, data interface{}) {
	b.mu.RLock()
	handlers := b.subscribers[topic]
	b.mu.RUnlock()

	b.published.Add(1)

	if len(handlers) == 0 {
		return
	}

	event := Event{
		Seq:       b.sequence.Add(1),
		Topic:     topic,
		Timestamp: time.Now(),
		Data:      data,
	}

	for i, h := range handlers {
		b.deliver(event, i, h)
	}
}

// deliver invokes one handler with panic isolation.
func (b *Bus) deliver(event Event, idx int, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.recovered.Add(1)
			logging.Get(logging.CategoryBus).Error(
				"subscriber %d for topic %s panicked: %v", idx, event.Topic, r)
		}
	}()
	h(event)
}

// SubscriberCount returns the number of handlers registered for topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Stats returns bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	topics := len(b.subscribers)
	b.mu.RUnlock()

	return Stats{
		Topics:          topics,
		Published:       b.published.Load(),
		Events:          b.sequence.Load(),
		RecoveredPanics: b.recovered.Load(),
	}
}

// Stats holds bus counters.
type Stats struct {
	Topics          int
	Published       uint64 // Publish calls, including no-subscriber no-ops
	Events          uint64 // Events actually delivered to at least one handler
	RecoveredPanics uint64
}
