// Package task provides the CourierTask aggregate, the dispatchable unit of
// delivery work derived from one confirmed order.
//
// The package includes:
//   - Task: the aggregate root holding the order reference, pickup/dropoff
//     points, the courier award, and the delivery fee
//   - Status: a state machine enforcing the task lifecycle
//
// Key business rules:
//   - Exactly one task exists per confirmed order
//   - courier is unset if and only if the task is waiting
//   - Once the task leaves waiting, the courier is immutable; there is no
//     reassignment
//   - Status moves monotonically: waiting -> assigned -> picked_up ->
//     delivering -> delivered, with cancelled reachable from any
//     non-terminal state
//
// The aggregate's transition methods express the rules; under concurrent
// claims the same preconditions are enforced atomically by the task
// repository's conditional update, never by in-process locking.
package task
