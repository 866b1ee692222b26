package commands

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrAdvanceTaskCommandIsNotConstructed = errors.New(
	"AdvanceTaskCommand must be created via NewAdvanceTaskCommand constructor",
)

// AdvanceTaskCommand represents the owning courier reporting delivery
// progress: picked up, delivering, or delivered. The target must be exactly
// one step ahead of the task's current status.
type AdvanceTaskCommand struct {
	taskID    kernel.UUID
	courierID kernel.UUID
	target    task.Status
	guard     guard.ConstructorGuard
}

// NewAdvanceTaskCommand creates a validated progress command.
// Only the three delivery-progress statuses are accepted as targets; claims
// and cancellations have their own commands.
func NewAdvanceTaskCommand(taskID, courierID kernel.UUID, target task.Status) (AdvanceTaskCommand, error) {
	if err := errors.Join(taskID.Validate(), courierID.Validate()); err != nil {
		return AdvanceTaskCommand{}, err
	}

	switch target {
	case task.PickedUp, task.Delivering, task.Delivered:
	default:
		return AdvanceTaskCommand{}, errs.NewValueIsInvalidErrorWithCause("target",
			fmt.Errorf("%s is not a progress status", target))
	}

	return AdvanceTaskCommand{
		taskID:    taskID,
		courierID: courierID,
		target:    target,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// TaskID returns the task being advanced.
func (c *AdvanceTaskCommand) TaskID() kernel.UUID {
	return c.taskID
}

// CourierID returns the reporting courier.
func (c *AdvanceTaskCommand) CourierID() kernel.UUID {
	return c.courierID
}

// Target returns the status the courier is reporting.
func (c *AdvanceTaskCommand) Target() task.Status {
	return c.target
}

// Validate ensures the command was created through the constructor.
func (c *AdvanceTaskCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceTaskCommandIsNotConstructed)
}
