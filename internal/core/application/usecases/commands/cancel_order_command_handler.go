package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// CancelOrderCommandHandler cancels an order and its derived task together.
// Cancellation is refused once the courier has physically collected the
// order; from that point the delivery has to run its course.
//
// The task side uses the repository's conditional update so a cancellation
// racing a claim resolves cleanly: whichever write lands first wins, the
// other observes zero affected rows.
type CancelOrderCommandHandler struct {
	uowFactory UoWFactory
	publisher  ports.EventPublisher
}

// NewCancelOrderCommandHandler creates a handler for order cancellation.
func NewCancelOrderCommandHandler(uowFactory UoWFactory, publisher ports.EventPublisher) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
	}
}

// Handle processes the cancellation command.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
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
	taskRepo := uow.TaskRepository()

	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if !o.BusinessID().IsEqual(cmd.ActorBusinessID()) {
		return errs.NewForbiddenError(cmd.ActorBusinessID().String(), "order "+o.ID().String())
	}

	t, err := taskRepo.GetByOrderID(ctx, o.ID())
	if err != nil && !errors.Is(err, errs.ErrObjectNotFound) {
		return err
	}

	cancelledTask := t
	if t != nil {
		cancelledTask, err = h.cancelTask(ctx, taskRepo, t)
		if err != nil {
			return err
		}
	}

	if err = o.Cancel(); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.publishCancelled(o.ID(), cancelledTask, cmd.Reason())

	return nil
}

// cancelTask transitions the task to cancelled via conditional update keyed
// on its current status and courier. Zero affected rows means the task moved
// under us, typically a courier picking the order up mid-cancel; the caller
// gets a conflict and can retry against the new state.
func (h CancelOrderCommandHandler) cancelTask(
	ctx context.Context,
	taskRepo ports.TaskRepository,
	t *task.Task,
) (*task.Task, error) {
	switch t.Status() {
	case task.PickedUp, task.Delivering:
		return nil, errs.NewConflictError("task", t.ID().String())
	case task.Delivered, task.Cancelled:
		return nil, errs.NewInvalidStateError("cancel", t.Status().String())
	}

	rows, err := taskRepo.UpdateIf(ctx, t.ID(),
		ports.TaskExpectation{Status: t.Status(), CourierID: t.Courier()},
		ports.TaskPatch{Status: task.Cancelled},
	)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, errs.NewConflictError("task", t.ID().String())
	}

	return t, nil
}

func (h CancelOrderCommandHandler) publishCancelled(orderID kernel.UUID, t *task.Task, reason string) {
	payload := map[string]any{
		"order_id": orderID.String(),
		"reason":   reason,
	}

	h.publisher.Publish(ports.OrderTopic(orderID), ports.EventTaskCancelled, payload)

	if t == nil {
		return
	}

	payload["task_id"] = t.ID().String()
	h.publisher.Publish(ports.BusinessTopic(t.BusinessID()), ports.EventTaskCancelled, payload)
	h.publisher.Publish(ports.CourierGlobalTopic, ports.EventTaskCancelled, payload)
	if t.Courier() != nil {
		h.publisher.Publish(ports.CourierTopic(*t.Courier()), ports.EventTaskCancelled, payload)
	}
}
