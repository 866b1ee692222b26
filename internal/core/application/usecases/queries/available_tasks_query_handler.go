package queries

import (
	"context"

	"dispatch/internal/core/domain/model/task"

	"gorm.io/gorm"
)

// AvailableTasksQueryHandler lists one business's waiting tasks enriched
// with the order details a courier weighs before claiming.
type AvailableTasksQueryHandler struct {
	db *gorm.DB
}

// NewAvailableTasksQueryHandler creates a handler for availability listings.
func NewAvailableTasksQueryHandler(db *gorm.DB) AvailableTasksQueryHandler {
	return AvailableTasksQueryHandler{db: db}
}

// Handle executes the availability listing, newest first.
func (h AvailableTasksQueryHandler) Handle(
	ctx context.Context,
	query AvailableTasksQuery,
) ([]TaskResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT`+taskQueryColumns+`
		FROM tasks t
		JOIN orders o ON o.id = t.order_id
		WHERE t.business_id = ? AND t.status = ?
		ORDER BY t.created_at DESC
		LIMIT ?
	`, query.BusinessID().Bytes(), task.Waiting.String(), query.Limit()).Rows()
	if err != nil {
		return nil, err
	}

	return collectTaskRows(rows)
}
