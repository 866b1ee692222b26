package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// ConfirmOrderResult reports the outcome of a confirmation. Created is false
// when the order was already confirmed and the existing task was returned
// instead of a new one.
type ConfirmOrderResult struct {
	OrderID kernel.UUID
	TaskID  kernel.UUID
	Created bool
}

// ConfirmOrderCommandHandler handles a business accepting an order.
// Moves the order to confirmed and creates the courier task in the same
// transaction, so a confirmed order without a task can never be observed.
// Repeated confirmation of the same order is idempotent: the existing task
// is returned rather than a duplicate created.
//
// Example:
//
//	handler := NewConfirmOrderCommandHandler(uowFactory, businessRepo, publisher)
//	cmd, _ := NewConfirmOrderCommand(orderID, businessID, 3.5)
//	result, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return err
//	}
//	// result.TaskID is now visible to every courier
type ConfirmOrderCommandHandler struct {
	uowFactory UoWFactory
	businesses ports.BusinessRepository
	publisher  ports.EventPublisher
}

// NewConfirmOrderCommandHandler creates a handler for order confirmation.
// Requires a UoWFactory spanning orders and tasks, read access to businesses
// for the pickup location, and an event publisher for post-commit
// notifications.
func NewConfirmOrderCommandHandler(
	uowFactory UoWFactory,
	businesses ports.BusinessRepository,
	publisher ports.EventPublisher,
) ConfirmOrderCommandHandler {
	return ConfirmOrderCommandHandler{
		uowFactory: uowFactory,
		businesses: businesses,
		publisher:  publisher,
	}
}

// Handle processes the confirmation command.
// Verifies the acting business owns the order, transitions it to confirmed,
// and derives the courier task from the business location and the order's
// delivery address. Events go out only after the transaction commits.
func (h ConfirmOrderCommandHandler) Handle(ctx context.Context, cmd ConfirmOrderCommand) (ConfirmOrderResult, error) {
	if err := cmd.Validate(); err != nil {
		return ConfirmOrderResult{}, err
	}

	business, err := h.businesses.Get(ctx, cmd.ActorBusinessID())
	if err != nil {
		return ConfirmOrderResult{}, err
	}
	if business.Location == nil {
		return ConfirmOrderResult{}, errs.NewValueIsRequiredError("business location")
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return ConfirmOrderResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	taskRepo := uow.TaskRepository()

	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return ConfirmOrderResult{}, err
	}

	if !o.BusinessID().IsEqual(cmd.ActorBusinessID()) {
		return ConfirmOrderResult{}, errs.NewForbiddenError(
			cmd.ActorBusinessID().String(), "order "+o.ID().String())
	}

	if o.Status() != order.Created {
		return h.alreadyConfirmed(ctx, taskRepo, o)
	}

	if err = o.Confirm(); err != nil {
		return ConfirmOrderResult{}, err
	}

	t, err := task.NewTask(
		kernel.NewUUID(),
		o.ID(),
		o.BusinessID(),
		*business.Location,
		o.DeliveryAddress().Point,
		business.Address,
		o.DeliveryAddress().Text,
		cmd.UnitDeliveryFee(),
	)
	if err != nil {
		return ConfirmOrderResult{}, err
	}

	if err = taskRepo.Add(ctx, t); err != nil {
		return ConfirmOrderResult{}, err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return ConfirmOrderResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return ConfirmOrderResult{}, err
	}

	h.publishCreated(t)

	return ConfirmOrderResult{OrderID: o.ID(), TaskID: t.ID(), Created: true}, nil
}

// alreadyConfirmed resolves a repeated confirmation. If the earlier
// confirmation left a task behind, return it; otherwise the order is in a
// state where confirmation makes no sense.
func (h ConfirmOrderCommandHandler) alreadyConfirmed(
	ctx context.Context,
	taskRepo ports.TaskRepository,
	o *order.Order,
) (ConfirmOrderResult, error) {
	existing, err := taskRepo.GetByOrderID(ctx, o.ID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return ConfirmOrderResult{}, errs.NewInvalidStateError("confirm", o.Status().String())
	}
	if err != nil {
		return ConfirmOrderResult{}, err
	}

	return ConfirmOrderResult{OrderID: o.ID(), TaskID: existing.ID(), Created: false}, nil
}

func (h ConfirmOrderCommandHandler) publishCreated(t *task.Task) {
	payload := map[string]any{
		"task_id":         t.ID().String(),
		"order_id":        t.OrderID().String(),
		"business_id":     t.BusinessID().String(),
		"pickup_address":  t.PickupAddress(),
		"dropoff_address": t.DropoffAddress(),
		"delivery_fee":    t.UnitDeliveryFee(),
		"status":          t.Status().String(),
	}

	h.publisher.Publish(ports.BusinessTopic(t.BusinessID()), ports.EventTaskCreated, payload)
	h.publisher.Publish(ports.CourierGlobalTopic, ports.EventTaskCreated, payload)
}
