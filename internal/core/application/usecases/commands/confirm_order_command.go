package commands

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrConfirmOrderCommandIsNotConstructed = errors.New(
	"ConfirmOrderCommand must be created via NewConfirmOrderCommand constructor",
)

// ConfirmOrderCommand represents a business accepting an order. Confirmation
// is the moment a courier task comes into existence: the order transitions
// to confirmed and exactly one task is created for it, atomically.
type ConfirmOrderCommand struct {
	orderID         kernel.UUID
	actorBusinessID kernel.UUID
	unitDeliveryFee float64
	guard           guard.ConstructorGuard
}

// NewConfirmOrderCommand creates a validated confirmation command.
// The fee is the courier's earning for the delivery and must not be negative.
func NewConfirmOrderCommand(
	orderID kernel.UUID,
	actorBusinessID kernel.UUID,
	unitDeliveryFee float64,
) (ConfirmOrderCommand, error) {
	if err := errors.Join(orderID.Validate(), actorBusinessID.Validate()); err != nil {
		return ConfirmOrderCommand{}, err
	}
	if unitDeliveryFee < 0 {
		return ConfirmOrderCommand{}, errs.NewValueIsInvalidErrorWithCause("unit_delivery_fee",
			fmt.Errorf("%f is negative", unitDeliveryFee))
	}

	return ConfirmOrderCommand{
		orderID:         orderID,
		actorBusinessID: actorBusinessID,
		unitDeliveryFee: unitDeliveryFee,
		guard:           guard.NewConstructorGuard(),
	}, nil
}

// OrderID returns the order being confirmed.
func (c *ConfirmOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// ActorBusinessID returns the identity of the confirming business.
func (c *ConfirmOrderCommand) ActorBusinessID() kernel.UUID {
	return c.actorBusinessID
}

// UnitDeliveryFee returns the courier's earning for the delivery.
func (c *ConfirmOrderCommand) UnitDeliveryFee() float64 {
	return c.unitDeliveryFee
}

// Validate ensures the command was created through the constructor.
func (c *ConfirmOrderCommand) Validate() error {
	return c.guard.Validate(ErrConfirmOrderCommandIsNotConstructed)
}
