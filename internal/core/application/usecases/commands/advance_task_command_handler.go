package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// AdvanceTaskCommandHandler applies a delivery-progress transition on behalf
// of the owning courier. Like the claim, the write is a single conditional
// update keyed on the previous status AND the courier, so a stolen or stale
// token can never advance someone else's delivery, and a duplicate report
// of the same step is idempotent.
type AdvanceTaskCommandHandler struct {
	tasks     ports.TaskRepository
	orders    ports.OrderRepository
	publisher ports.EventPublisher
	logger    *slog.Logger
}

// NewAdvanceTaskCommandHandler creates a handler for delivery progress.
func NewAdvanceTaskCommandHandler(
	tasks ports.TaskRepository,
	orders ports.OrderRepository,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) AdvanceTaskCommandHandler {
	return AdvanceTaskCommandHandler{
		tasks:     tasks,
		orders:    orders,
		publisher: publisher,
		logger:    logger.With("component", "advance_task_handler"),
	}
}

// Handle processes the progress command and returns the updated task.
func (h AdvanceTaskCommandHandler) Handle(ctx context.Context, cmd AdvanceTaskCommand) (*task.Task, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	t, err := h.tasks.Get(ctx, cmd.TaskID())
	if err != nil {
		return nil, err
	}

	if t.Courier() == nil {
		return nil, errs.NewInvalidStateError(cmd.Target().String(), t.Status().String())
	}
	if !t.IsOwnedBy(cmd.CourierID()) {
		return nil, errs.NewForbiddenError(cmd.CourierID().String(), "task "+t.ID().String())
	}

	if t.Status() == cmd.Target() {
		return t, nil
	}

	previous, err := previousStatus(cmd.Target())
	if err != nil {
		return nil, err
	}

	courierID := cmd.CourierID()
	rows, err := h.tasks.UpdateIf(ctx, t.ID(),
		ports.TaskExpectation{Status: previous, CourierID: &courierID},
		ports.TaskPatch{Status: cmd.Target()},
	)
	if err != nil {
		return nil, err
	}

	if rows == 0 {
		return h.resolveStale(ctx, cmd)
	}

	updated, err := h.tasks.Get(ctx, t.ID())
	if err != nil {
		h.logger.Warn("re-read after progress failed", "task_id", t.ID().String(), "error", err)
		updated = t
	}

	h.syncOrder(ctx, updated, cmd.Target())
	h.publishProgress(updated, cmd.Target())

	return updated, nil
}

// previousStatus maps each progress target to the one status it may follow.
func previousStatus(target task.Status) (task.Status, error) {
	switch target {
	case task.PickedUp:
		return task.Assigned, nil
	case task.Delivering:
		return task.PickedUp, nil
	case task.Delivered:
		return task.Delivering, nil
	default:
		return task.Unknown, errs.NewValueIsInvalidError("target")
	}
}

// resolveStale re-reads after a zero-row update. A duplicate report that
// already landed is success; anything else is a genuine ordering violation.
func (h AdvanceTaskCommandHandler) resolveStale(ctx context.Context, cmd AdvanceTaskCommand) (*task.Task, error) {
	t, err := h.tasks.Get(ctx, cmd.TaskID())
	if err != nil {
		return nil, err
	}

	if t.IsOwnedBy(cmd.CourierID()) && t.Status() == cmd.Target() {
		return t, nil
	}

	return nil, errs.NewInvalidStateError(cmd.Target().String(), t.Status().String())
}

// syncOrder mirrors the progress onto the order, best-effort.
func (h AdvanceTaskCommandHandler) syncOrder(ctx context.Context, t *task.Task, target task.Status) {
	o, err := h.orders.Get(ctx, t.OrderID())
	if err != nil {
		h.logger.Warn("order sync skipped", "order_id", t.OrderID().String(), "error", err)
		return
	}

	switch target {
	case task.PickedUp:
		err = o.MarkPickedUp()
	case task.Delivering:
		err = o.MarkDelivering()
	case task.Delivered:
		err = o.MarkDelivered()
	}
	if err != nil {
		h.logger.Warn("order sync skipped", "order_id", o.ID().String(), "error", err)
		return
	}

	if err = h.orders.Update(ctx, o); err != nil {
		h.logger.Warn("order sync failed", "order_id", o.ID().String(), "error", err)
	}
}

func (h AdvanceTaskCommandHandler) publishProgress(t *task.Task, target task.Status) {
	payload := map[string]any{
		"task_id":     t.ID().String(),
		"order_id":    t.OrderID().String(),
		"business_id": t.BusinessID().String(),
		"status":      target.String(),
	}

	h.publisher.Publish(ports.BusinessTopic(t.BusinessID()), "task."+target.String(), payload)
	h.publisher.Publish(ports.OrderTopic(t.OrderID()), "task."+target.String(), payload)
}
