package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/guard"
)

var ErrAvailableTasksQueryIsNotConstructed = errors.New(
	"AvailableTasksQuery must be created via NewAvailableTasksQuery constructor",
)

// AvailableTasksQuery lists the waiting tasks of one business, newest first.
// This is what a courier browsing a nearby business sees.
type AvailableTasksQuery struct {
	businessID kernel.UUID
	limit      int
	guard      guard.ConstructorGuard
}

// NewAvailableTasksQuery creates a validated availability query.
// Limits outside (0, TaskListLimit] fall back to the cap.
func NewAvailableTasksQuery(businessID kernel.UUID, limit int) (AvailableTasksQuery, error) {
	if err := businessID.Validate(); err != nil {
		return AvailableTasksQuery{}, err
	}

	if limit <= 0 || limit > ports.TaskListLimit {
		limit = ports.TaskListLimit
	}

	return AvailableTasksQuery{
		businessID: businessID,
		limit:      limit,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// BusinessID returns the business whose waiting tasks are listed.
func (q AvailableTasksQuery) BusinessID() kernel.UUID {
	return q.businessID
}

// Limit returns the effective page size.
func (q AvailableTasksQuery) Limit() int {
	return q.limit
}

// Validate ensures the query was created through the constructor.
func (q AvailableTasksQuery) Validate() error {
	return q.guard.Validate(ErrAvailableTasksQueryIsNotConstructed)
}
