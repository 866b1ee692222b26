package queries

import (
	"context"

	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"

	"gorm.io/gorm"
)

// ListWaitingTasksQueryHandler serves the global waiting-task feed.
type ListWaitingTasksQueryHandler struct {
	db *gorm.DB
}

// NewListWaitingTasksQueryHandler creates a handler for the global feed.
func NewListWaitingTasksQueryHandler(db *gorm.DB) ListWaitingTasksQueryHandler {
	return ListWaitingTasksQueryHandler{db: db}
}

// Handle executes the global waiting listing, newest first, capped at one
// page. The cap keeps a backlog spike from turning the feed into a full
// table materialization.
func (h ListWaitingTasksQueryHandler) Handle(
	ctx context.Context,
	query ListWaitingTasksQuery,
) ([]TaskResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT`+taskQueryColumns+`
		FROM tasks t
		JOIN orders o ON o.id = t.order_id
		WHERE t.status = ?
		ORDER BY t.created_at DESC
		LIMIT ?
	`, task.Waiting.String(), ports.TaskListLimit).Rows()
	if err != nil {
		return nil, err
	}

	return collectTaskRows(rows)
}
