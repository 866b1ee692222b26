package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// ReconcileOrdersCommandHandler sweeps in-flight orders and re-applies the
// task-to-order status sync wherever it previously failed. The task is the
// source of truth for delivery progress; the order record is a projection
// that may briefly lag.
type ReconcileOrdersCommandHandler struct {
	orders ports.OrderRepository
	tasks  ports.TaskRepository
	logger *slog.Logger
}

// NewReconcileOrdersCommandHandler creates a handler for the reconciliation
// sweep.
func NewReconcileOrdersCommandHandler(
	orders ports.OrderRepository,
	tasks ports.TaskRepository,
	logger *slog.Logger,
) ReconcileOrdersCommandHandler {
	return ReconcileOrdersCommandHandler{
		orders: orders,
		tasks:  tasks,
		logger: logger.With("component", "reconcile_orders_handler"),
	}
}

// Handle runs one sweep. Per-order failures are logged and skipped so one
// bad record never stalls the rest; the next sweep retries them.
func (h ReconcileOrdersCommandHandler) Handle(ctx context.Context, cmd ReconcileOrdersCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	statuses := []order.Status{
		order.Confirmed,
		order.Ready,
		order.Assigned,
		order.PickedUp,
		order.Delivering,
	}

	repaired := 0
	for _, status := range statuses {
		lagging, err := h.orders.GetAllInStatus(ctx, status)
		if err != nil {
			return err
		}

		for _, o := range lagging {
			changed, reconcileErr := h.reconcile(ctx, o)
			if reconcileErr != nil {
				h.logger.WarnContext(ctx, "order reconciliation failed",
					"order_id", o.ID().String(),
					"order_status", o.Status().String(),
					"error", reconcileErr,
				)
				continue
			}
			if changed {
				repaired++
			}
		}
	}

	if repaired > 0 {
		h.logger.InfoContext(ctx, "reconciliation sweep repaired lagging orders",
			"repaired", repaired,
		)
	}

	return nil
}

// reconcile advances one order to the status its task implies. Returns true
// when the order record was updated.
func (h ReconcileOrdersCommandHandler) reconcile(ctx context.Context, o *order.Order) (bool, error) {
	t, err := h.tasks.GetByOrderID(ctx, o.ID())
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			// Confirmed orders without a task are a different defect;
			// nothing this sweep can repair.
			return false, nil
		}
		return false, err
	}

	target, ok := orderStatusFor(t.Status())
	if !ok || o.Status() >= target {
		return false, nil
	}

	if err = advanceOrderTo(o, target); err != nil {
		return false, err
	}

	if err = h.orders.Update(ctx, o); err != nil {
		return false, err
	}

	return true, nil
}

// orderStatusFor maps a task status to the order status it implies. Waiting
// implies nothing: confirmed and ready are both legitimate while the task
// sits unclaimed. Cancelled tasks are written in the same transaction as
// the order cancellation and cannot drift.
func orderStatusFor(s task.Status) (order.Status, bool) {
	switch s {
	case task.Assigned:
		return order.Assigned, true
	case task.PickedUp:
		return order.PickedUp, true
	case task.Delivering:
		return order.Delivering, true
	case task.Delivered:
		return order.Delivered, true
	default:
		return order.Unknown, false
	}
}

// advanceOrderTo steps the order forward until it reaches target.
func advanceOrderTo(o *order.Order, target order.Status) error {
	for o.Status() < target {
		var err error
		switch o.Status() {
		case order.Confirmed, order.Ready:
			err = o.Assign()
		case order.Assigned:
			err = o.MarkPickedUp()
		case order.PickedUp:
			err = o.MarkDelivering()
		case order.Delivering:
			err = o.MarkDelivered()
		default:
			return errs.NewInvalidStateError(target.String(), o.Status().String())
		}
		if err != nil {
			return err
		}
	}
	return nil
}
