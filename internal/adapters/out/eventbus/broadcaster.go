// Package eventbus provides the in-process event broadcaster. It fans
// business events out to topic subscribers (websocket sessions, mostly)
// on a best-effort basis: events are transient, never persisted, and a
// slow or absent listener simply misses them.
package eventbus

import (
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/ports"
)

const subscriberBuffer = 16

// subscriber is one registered listener on a topic.
type subscriber struct {
	topic string
	ch    chan ports.Event
}

// Broadcaster implements ports.EventPublisher with an internal dispatch
// queue and per-topic fan-out. Publish never blocks: when the queue or a
// subscriber buffer is full the event is dropped and logged.
type Broadcaster struct {
	queue  chan ports.Event
	logger *slog.Logger

	lock        sync.RWMutex
	subscribers map[string][]*subscriber
	closed      bool

	done chan struct{}
}

// NewBroadcaster creates a broadcaster with the given dispatch queue size
// and starts its dispatcher goroutine.
func NewBroadcaster(queueSize int, logger *slog.Logger) *Broadcaster {
	if queueSize <= 0 {
		queueSize = 256
	}

	b := &Broadcaster{
		queue:       make(chan ports.Event, queueSize),
		logger:      logger.With("component", "event_broadcaster"),
		subscribers: make(map[string][]*subscriber),
		done:        make(chan struct{}),
	}

	go b.dispatch()

	return b
}

// Publish enqueues an event for fan-out. It returns immediately; if the
// dispatch queue is full the event is dropped.
func (b *Broadcaster) Publish(topic string, eventType string, payload map[string]any) {
	event := ports.Event{
		Topic:     topic,
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	// The read lock spans the send so Close cannot close the queue
	// between the check and the enqueue.
	b.lock.RLock()
	defer b.lock.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.queue <- event:
	default:
		b.logger.Warn("event dropped, dispatch queue full",
			"topic", topic,
			"event_type", eventType,
		)
	}
}

// Subscribe registers a listener on a topic. The returned cancel function
// unregisters the listener and closes its channel; it is safe to call more
// than once.
func (b *Broadcaster) Subscribe(topic string) (<-chan ports.Event, func()) {
	sub := &subscriber{
		topic: topic,
		ch:    make(chan ports.Event, subscriberBuffer),
	}

	b.lock.Lock()
	if b.closed {
		b.lock.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	b.subscribers[topic] = append(b.subscribers[topic], sub)
	b.lock.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.unsubscribe(sub)
		})
	}

	return sub.ch, cancel
}

// Close stops the dispatcher and closes all subscriber channels. Publish
// calls after Close are ignored.
func (b *Broadcaster) Close() {
	b.lock.Lock()
	if b.closed {
		b.lock.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.lock.Unlock()

	<-b.done

	b.lock.Lock()
	for _, subs := range b.subscribers {
		for _, sub := range subs {
			close(sub.ch)
		}
	}
	b.subscribers = make(map[string][]*subscriber)
	b.lock.Unlock()
}

func (b *Broadcaster) dispatch() {
	defer close(b.done)

	for event := range b.queue {
		b.lock.RLock()
		subs := b.subscribers[event.Topic]
		for _, sub := range subs {
			select {
			case sub.ch <- event:
			default:
				b.logger.Warn("event dropped, slow subscriber",
					"topic", event.Topic,
					"event_type", event.Type,
				)
			}
		}
		b.lock.RUnlock()
	}
}

func (b *Broadcaster) unsubscribe(sub *subscriber) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.closed {
		return
	}

	subs := b.subscribers[sub.topic]
	for i, s := range subs {
		if s == sub {
			b.subscribers[sub.topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subscribers[sub.topic]) == 0 {
		delete(b.subscribers, sub.topic)
	}

	close(sub.ch)
}
