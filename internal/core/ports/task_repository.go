package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
)

// TaskListLimit caps every task listing to a single materialized page.
const TaskListLimit = 100

// TaskFilter narrows a task listing. Zero value lists everything up to the
// cap, newest-first.
type TaskFilter struct {
	// Status filters to a single lifecycle status when set.
	Status *task.Status

	// CourierID filters to tasks awarded to one courier when set.
	CourierID *kernel.UUID

	// BusinessID filters to tasks of one business when set.
	BusinessID *kernel.UUID

	// OnlyUnassigned additionally requires courier_id to be unset.
	OnlyUnassigned bool

	// Limit caps the page size; values <= 0 or > TaskListLimit fall back
	// to TaskListLimit.
	Limit int
}

// TaskExpectation is the precondition of a conditional update: the stored
// task must match every field for the patch to apply.
type TaskExpectation struct {
	// Status the task must currently have.
	Status task.Status

	// CourierID the task must currently carry; nil means the courier
	// column must be unset.
	CourierID *kernel.UUID
}

// TaskPatch is the mutation applied by a conditional update.
type TaskPatch struct {
	// Status to move the task to.
	Status task.Status

	// CourierID to award the task to; left nil for progress transitions,
	// which never touch the courier.
	CourierID *kernel.UUID

	// CourierName recorded alongside the award.
	CourierName *string

	// AssignedAt recorded when the award happens.
	AssignedAt *time.Time
}

// TaskRepository defines the persistence contract for courier tasks.
//
// UpdateIf is the sole mutation primitive for lifecycle transitions. It must
// be implemented as one indivisible storage operation (an update with a
// match filter), never as read-then-write: the first-courier-wins guarantee
// of the whole dispatch core rests on it, because multiple service instances
// race without any shared in-process lock.
type TaskRepository interface {
	// Add persists a new task. Fails if an active task already exists for
	// the same order (the storage layer's idempotency guard against
	// double confirmation).
	Add(ctx context.Context, aggregate *task.Task) error

	// Get retrieves a task by its identifier.
	Get(ctx context.Context, id kernel.UUID) (*task.Task, error)

	// GetByOrderID retrieves the task derived from the given order.
	GetByOrderID(ctx context.Context, orderID kernel.UUID) (*task.Task, error)

	// List returns tasks matching the filter, most recent first, capped
	// at TaskListLimit.
	List(ctx context.Context, filter TaskFilter) ([]*task.Task, error)

	// UpdateIf atomically applies patch to the task iff the stored record
	// matches expected in full. Returns the number of affected rows:
	// 1 when applied, 0 when the precondition did not hold.
	UpdateIf(ctx context.Context, id kernel.UUID, expected TaskExpectation, patch TaskPatch) (int64, error)
}
