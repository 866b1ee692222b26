package ports

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// Event types announced by the dispatch core.
const (
	EventTaskCreated    = "task.created"
	EventTaskAssigned   = "task.assigned"
	EventTaskPickedUp   = "task.picked_up"
	EventTaskDelivering = "task.delivering"
	EventTaskDelivered  = "task.delivered"
	EventTaskCancelled  = "task.cancelled"
	EventOrderReady     = "order.ready"
)

// CourierGlobalTopic is the shared topic every courier client listens on to
// keep its available-task list current without polling.
const CourierGlobalTopic = "courier:global"

// BusinessTopic returns the topic addressing one business's listeners.
func BusinessTopic(id kernel.UUID) string {
	return "business:" + id.String()
}

// CourierTopic returns the topic addressing one courier's listeners.
func CourierTopic(id kernel.UUID) string {
	return "courier:" + id.String()
}

// OrderTopic returns the topic addressing listeners of one order.
func OrderTopic(id kernel.UUID) string {
	return "order:" + id.String()
}

// Event is the transient envelope fanned out to subscribers. Events are not
// persisted; an absent subscriber simply misses them.
type Event struct {
	Topic     string         `json:"topic"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// EventPublisher is the fire-and-forget notification contract.
//
// Publish must never block the caller and must never fail the triggering
// business operation: dispatch correctness depends only on the task store's
// atomic state, never on event delivery.
type EventPublisher interface {
	Publish(topic string, eventType string, payload map[string]any)
}
