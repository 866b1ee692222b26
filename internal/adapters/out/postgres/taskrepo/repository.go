package taskrepo

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormTaskRepository implements ports.TaskRepository using GORM.
//
// UpdateIf compiles to a single UPDATE with the expectation in the WHERE
// clause. Postgres row locking serializes racing statements, so of N
// concurrent claims exactly one sees RowsAffected==1 regardless of how many
// service instances issued them.
type GormTaskRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormTaskRepository creates a new GORM task repository.
func NewGormTaskRepository(db *gorm.DB, tracker aggregateTracker) *GormTaskRepository {
	return &GormTaskRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new task to the database. The unique index on order_id turns a
// double confirmation into a ConflictError instead of a second task.
func (r *GormTaskRepository) Add(ctx context.Context, aggregate *task.Task) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewConflictError("task for order", aggregate.OrderID().String())
		}
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves a task by ID.
func (r *GormTaskRepository) Get(ctx context.Context, id kernel.UUID) (*task.Task, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto TaskDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("task", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetByOrderID retrieves the task derived from the given order.
func (r *GormTaskRepository) GetByOrderID(ctx context.Context, orderID kernel.UUID) (*task.Task, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dto TaskDTO
	if err := r.db.WithContext(ctx).First(&dto, "order_id = ?", orderID.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("task for order", orderID.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// List returns tasks matching the filter, newest first, capped at one page.
func (r *GormTaskRepository) List(ctx context.Context, filter ports.TaskFilter) ([]*task.Task, error) {
	limit := filter.Limit
	if limit <= 0 || limit > ports.TaskListLimit {
		limit = ports.TaskListLimit
	}

	query := r.db.WithContext(ctx).Model(&TaskDTO{})

	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.CourierID != nil {
		query = query.Where("courier_id = ?", filter.CourierID.Bytes())
	}
	if filter.BusinessID != nil {
		query = query.Where("business_id = ?", filter.BusinessID.Bytes())
	}
	if filter.OnlyUnassigned {
		query = query.Where("courier_id IS NULL")
	}

	var dtos []TaskDTO
	if err := query.Order("created_at DESC").Limit(limit).Find(&dtos).Error; err != nil {
		return nil, err
	}

	tasks := make([]*task.Task, 0, len(dtos))
	for _, dto := range dtos {
		t, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

// UpdateIf atomically applies patch to the task iff the stored row still
// matches expected. One UPDATE statement, no read-modify-write.
func (r *GormTaskRepository) UpdateIf(
	ctx context.Context,
	id kernel.UUID,
	expected ports.TaskExpectation,
	patch ports.TaskPatch,
) (int64, error) {
	if err := id.Validate(); err != nil {
		return 0, err
	}
	if err := expected.Status.Validate(); err != nil {
		return 0, err
	}
	if err := patch.Status.Validate(); err != nil {
		return 0, err
	}

	query := r.db.WithContext(ctx).Model(&TaskDTO{}).
		Where("id = ?", id.Bytes()).
		Where("status = ?", expected.Status.String())

	if expected.CourierID == nil {
		query = query.Where("courier_id IS NULL")
	} else {
		query = query.Where("courier_id = ?", expected.CourierID.Bytes())
	}

	updates := map[string]any{"status": patch.Status.String()}
	if patch.CourierID != nil {
		updates["courier_id"] = patch.CourierID.Bytes()
	}
	if patch.CourierName != nil {
		updates["courier_name"] = *patch.CourierName
	}
	if patch.AssignedAt != nil {
		updates["assigned_at"] = *patch.AssignedAt
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
