package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrClaimTaskCommandIsNotConstructed = errors.New(
	"ClaimTaskCommand must be created via NewClaimTaskCommand constructor",
)

// ClaimTaskCommand represents a courier attempting to take a waiting task.
// Many couriers may issue this concurrently for the same task; exactly one
// succeeds.
type ClaimTaskCommand struct {
	taskID      kernel.UUID
	courierID   kernel.UUID
	courierName string
	guard       guard.ConstructorGuard
}

// NewClaimTaskCommand creates a validated claim command. The courier name is
// denormalized onto the task so listings never need a courier lookup.
func NewClaimTaskCommand(taskID, courierID kernel.UUID, courierName string) (ClaimTaskCommand, error) {
	if err := errors.Join(taskID.Validate(), courierID.Validate()); err != nil {
		return ClaimTaskCommand{}, err
	}
	if courierName == "" {
		return ClaimTaskCommand{}, errs.NewValueIsRequiredError("courier_name")
	}

	return ClaimTaskCommand{
		taskID:      taskID,
		courierID:   courierID,
		courierName: courierName,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

// TaskID returns the task being claimed.
func (c *ClaimTaskCommand) TaskID() kernel.UUID {
	return c.taskID
}

// CourierID returns the claiming courier.
func (c *ClaimTaskCommand) CourierID() kernel.UUID {
	return c.courierID
}

// CourierName returns the claiming courier's display name.
func (c *ClaimTaskCommand) CourierName() string {
	return c.courierName
}

// Validate ensures the command was created through the constructor.
func (c *ClaimTaskCommand) Validate() error {
	return c.guard.Validate(ErrClaimTaskCommandIsNotConstructed)
}
