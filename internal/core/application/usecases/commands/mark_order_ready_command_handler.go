package commands

import (
	"context"

	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// MarkOrderReadyCommandHandler moves a confirmed order to ready and tells
// the business's listeners about it. Couriers watching the task are not
// notified; pickup readiness matters to them only once they arrive.
type MarkOrderReadyCommandHandler struct {
	uowFactory OrderUoWFactory
	publisher  ports.EventPublisher
}

// NewMarkOrderReadyCommandHandler creates a handler for the ready transition.
func NewMarkOrderReadyCommandHandler(uowFactory OrderUoWFactory, publisher ports.EventPublisher) MarkOrderReadyCommandHandler {
	return MarkOrderReadyCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
	}
}

// Handle processes the ready command. The acting business must own the
// order and the order must currently be confirmed.
func (h MarkOrderReadyCommandHandler) Handle(ctx context.Context, cmd MarkOrderReadyCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if !o.BusinessID().IsEqual(cmd.ActorBusinessID()) {
		return errs.NewForbiddenError(cmd.ActorBusinessID().String(), "order "+o.ID().String())
	}

	if err = o.MarkReady(); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.publisher.Publish(ports.BusinessTopic(o.BusinessID()), ports.EventOrderReady, map[string]any{
		"order_id": o.ID().String(),
		"status":   o.Status().String(),
	})
	h.publisher.Publish(ports.OrderTopic(o.ID()), ports.EventOrderReady, map[string]any{
		"order_id": o.ID().String(),
		"status":   o.Status().String(),
	})

	return nil
}
