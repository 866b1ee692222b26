package commands

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// ClaimTaskResult reports the outcome of a claim. AlreadyYours is true when
// the courier already held the task and the claim was a retry.
type ClaimTaskResult struct {
	Task         *task.Task
	AlreadyYours bool
}

// ClaimTaskCommandHandler awards a contested task to the first courier whose
// write lands. The decision is a single conditional update in the task
// store: match "waiting, no courier", set "assigned to me". No in-process
// lock or coordinator is involved, so any number of service instances can
// race safely.
//
// The handler deliberately does NOT wrap the claim and the order-status sync
// in one transaction. The claim is the authoritative write; mirroring the
// assignment onto the order is best-effort and repaired by the reconciliation
// sweep if it fails. Holding the order row hostage to the claim would
// serialize couriers on an aggregate they don't own.
type ClaimTaskCommandHandler struct {
	tasks     ports.TaskRepository
	orders    ports.OrderRepository
	publisher ports.EventPublisher
	logger    *slog.Logger
}

// NewClaimTaskCommandHandler creates a handler for task claims.
func NewClaimTaskCommandHandler(
	tasks ports.TaskRepository,
	orders ports.OrderRepository,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) ClaimTaskCommandHandler {
	return ClaimTaskCommandHandler{
		tasks:     tasks,
		orders:    orders,
		publisher: publisher,
		logger:    logger.With("component", "claim_task_handler"),
	}
}

// Handle processes the claim command.
// Returns the claimed task on success, an idempotent success if the courier
// already owns it, and a conflict when another courier won the race.
func (h ClaimTaskCommandHandler) Handle(ctx context.Context, cmd ClaimTaskCommand) (ClaimTaskResult, error) {
	if err := cmd.Validate(); err != nil {
		return ClaimTaskResult{}, err
	}

	t, err := h.tasks.Get(ctx, cmd.TaskID())
	if err != nil {
		return ClaimTaskResult{}, err
	}

	if t.IsOwnedBy(cmd.CourierID()) {
		return ClaimTaskResult{Task: t, AlreadyYours: true}, nil
	}

	if t.Status() != task.Waiting {
		return ClaimTaskResult{}, errs.NewConflictError("task", t.ID().String())
	}

	courierID := cmd.CourierID()
	courierName := cmd.CourierName()
	now := time.Now().UTC()

	rows, err := h.tasks.UpdateIf(ctx, t.ID(),
		ports.TaskExpectation{Status: task.Waiting, CourierID: nil},
		ports.TaskPatch{
			Status:      task.Assigned,
			CourierID:   &courierID,
			CourierName: &courierName,
			AssignedAt:  &now,
		},
	)
	if err != nil {
		return ClaimTaskResult{}, err
	}

	if rows == 0 {
		return h.lostRace(ctx, cmd)
	}

	claimed, err := h.tasks.Get(ctx, t.ID())
	if err != nil {
		// The award is durable even if the re-read fails; surface the
		// stale aggregate rather than a phantom error.
		h.logger.Warn("re-read after claim failed", "task_id", t.ID().String(), "error", err)
		claimed = t
	}

	h.syncOrder(ctx, claimed)
	h.publishAssigned(claimed, courierName)

	return ClaimTaskResult{Task: claimed}, nil
}

// lostRace distinguishes "my own earlier claim landed" from "someone else
// won". A retry of a request whose response was lost must succeed.
func (h ClaimTaskCommandHandler) lostRace(ctx context.Context, cmd ClaimTaskCommand) (ClaimTaskResult, error) {
	t, err := h.tasks.Get(ctx, cmd.TaskID())
	if err != nil {
		return ClaimTaskResult{}, err
	}

	if t.IsOwnedBy(cmd.CourierID()) {
		return ClaimTaskResult{Task: t, AlreadyYours: true}, nil
	}

	return ClaimTaskResult{}, errs.NewConflictError("task", t.ID().String())
}

// syncOrder mirrors the assignment onto the order. Failures are logged and
// swallowed: the claim already won, and the reconciliation job converges
// lagging orders.
func (h ClaimTaskCommandHandler) syncOrder(ctx context.Context, t *task.Task) {
	o, err := h.orders.Get(ctx, t.OrderID())
	if err != nil {
		h.logger.Warn("order sync skipped", "order_id", t.OrderID().String(), "error", err)
		return
	}

	if err = o.Assign(); err != nil {
		h.logger.Warn("order sync skipped", "order_id", o.ID().String(), "error", err)
		return
	}

	if err = h.orders.Update(ctx, o); err != nil {
		h.logger.Warn("order sync failed", "order_id", o.ID().String(), "error", err)
	}
}

func (h ClaimTaskCommandHandler) publishAssigned(t *task.Task, courierName string) {
	payload := map[string]any{
		"task_id":      t.ID().String(),
		"order_id":     t.OrderID().String(),
		"business_id":  t.BusinessID().String(),
		"courier_name": courierName,
		"status":       task.Assigned.String(),
	}
	if t.Courier() != nil {
		payload["courier_id"] = t.Courier().String()
	}

	h.publisher.Publish(ports.BusinessTopic(t.BusinessID()), ports.EventTaskAssigned, payload)
	h.publisher.Publish(ports.OrderTopic(t.OrderID()), ports.EventTaskAssigned, payload)
	h.publisher.Publish(ports.CourierGlobalTopic, ports.EventTaskAssigned, payload)
}
