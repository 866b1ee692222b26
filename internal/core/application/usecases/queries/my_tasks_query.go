package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrMyTasksQueryIsNotConstructed = errors.New(
	"MyTasksQuery must be created via NewMyTasksQuery constructor",
)

// MyTasksQuery lists the tasks currently awarded to one courier that still
// need action: assigned, picked up, or delivering.
type MyTasksQuery struct {
	courierID kernel.UUID
	guard     guard.ConstructorGuard
}

// NewMyTasksQuery creates a validated my-tasks query.
func NewMyTasksQuery(courierID kernel.UUID) (MyTasksQuery, error) {
	if err := courierID.Validate(); err != nil {
		return MyTasksQuery{}, err
	}

	return MyTasksQuery{
		courierID: courierID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// CourierID returns the courier whose active tasks are listed.
func (q MyTasksQuery) CourierID() kernel.UUID {
	return q.courierID
}

// Validate ensures the query was created through the constructor.
func (q MyTasksQuery) Validate() error {
	return q.guard.Validate(ErrMyTasksQueryIsNotConstructed)
}
