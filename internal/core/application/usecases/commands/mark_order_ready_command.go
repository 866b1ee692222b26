package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrMarkOrderReadyCommandIsNotConstructed = errors.New(
	"MarkOrderReadyCommand must be created via NewMarkOrderReadyCommand constructor",
)

// MarkOrderReadyCommand represents a business flagging a confirmed order as
// packed and ready for pickup. This touches only the order; the task keeps
// its own lifecycle.
type MarkOrderReadyCommand struct {
	orderID         kernel.UUID
	actorBusinessID kernel.UUID
	guard           guard.ConstructorGuard
}

// NewMarkOrderReadyCommand creates a validated ready command.
func NewMarkOrderReadyCommand(orderID, actorBusinessID kernel.UUID) (MarkOrderReadyCommand, error) {
	if err := errors.Join(orderID.Validate(), actorBusinessID.Validate()); err != nil {
		return MarkOrderReadyCommand{}, err
	}

	return MarkOrderReadyCommand{
		orderID:         orderID,
		actorBusinessID: actorBusinessID,
		guard:           guard.NewConstructorGuard(),
	}, nil
}

// OrderID returns the order being marked ready.
func (c *MarkOrderReadyCommand) OrderID() kernel.UUID {
	return c.orderID
}

// ActorBusinessID returns the identity of the acting business.
func (c *MarkOrderReadyCommand) ActorBusinessID() kernel.UUID {
	return c.actorBusinessID
}

// Validate ensures the command was created through the constructor.
func (c *MarkOrderReadyCommand) Validate() error {
	return c.guard.Validate(ErrMarkOrderReadyCommandIsNotConstructed)
}
