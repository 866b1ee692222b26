package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrCancelOrderCommandIsNotConstructed = errors.New(
	"CancelOrderCommand must be created via NewCancelOrderCommand constructor",
)

// CancelOrderCommand represents a business calling off an order before the
// courier has collected it. Cancels the derived task along with the order.
type CancelOrderCommand struct {
	orderID         kernel.UUID
	actorBusinessID kernel.UUID
	reason          string
	guard           guard.ConstructorGuard
}

// NewCancelOrderCommand creates a validated cancellation command.
// The reason is free text kept for the order timeline; it may be empty.
func NewCancelOrderCommand(orderID, actorBusinessID kernel.UUID, reason string) (CancelOrderCommand, error) {
	if err := errors.Join(orderID.Validate(), actorBusinessID.Validate()); err != nil {
		return CancelOrderCommand{}, err
	}

	return CancelOrderCommand{
		orderID:         orderID,
		actorBusinessID: actorBusinessID,
		reason:          reason,
		guard:           guard.NewConstructorGuard(),
	}, nil
}

// OrderID returns the order being cancelled.
func (c *CancelOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// ActorBusinessID returns the identity of the cancelling business.
func (c *CancelOrderCommand) ActorBusinessID() kernel.UUID {
	return c.actorBusinessID
}

// Reason returns the stated cancellation reason.
func (c *CancelOrderCommand) Reason() string {
	return c.reason
}

// Validate ensures the command was created through the constructor.
func (c *CancelOrderCommand) Validate() error {
	return c.guard.Validate(ErrCancelOrderCommandIsNotConstructed)
}
