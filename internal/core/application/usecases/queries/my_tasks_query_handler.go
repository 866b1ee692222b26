package queries

import (
	"context"

	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"

	"gorm.io/gorm"
)

// MyTasksQueryHandler lists a courier's active workload, oldest award first
// so the ride the courier accepted first stays on top.
type MyTasksQueryHandler struct {
	db *gorm.DB
}

// NewMyTasksQueryHandler creates a handler for courier workload listings.
func NewMyTasksQueryHandler(db *gorm.DB) MyTasksQueryHandler {
	return MyTasksQueryHandler{db: db}
}

// Handle executes the workload listing.
func (h MyTasksQueryHandler) Handle(ctx context.Context, query MyTasksQuery) ([]TaskResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT`+taskQueryColumns+`
		FROM tasks t
		JOIN orders o ON o.id = t.order_id
		WHERE t.courier_id = ? AND t.status IN (?, ?, ?)
		ORDER BY t.assigned_at ASC
		LIMIT ?
	`, query.CourierID().Bytes(),
		task.Assigned.String(), task.PickedUp.String(), task.Delivering.String(),
		ports.TaskListLimit).Rows()
	if err != nil {
		return nil, err
	}

	return collectTaskRows(rows)
}
