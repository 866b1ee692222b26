// Package courierrepo provides read-only access to the courier directory.
// Courier identity and approval live in an external system; the dispatch
// core reads couriers to attribute claims and render names.
package courierrepo

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CourierDTO represents the database structure of a courier record.
type CourierDTO struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name     string    `gorm:"type:text"`
	Lat      *float64
	Lng      *float64
	Approved bool
}

// TableName specifies the database table name for courier entities.
func (CourierDTO) TableName() string {
	return "couriers"
}

func toReadModel(dto CourierDTO) (ports.Courier, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return ports.Courier{}, err
	}

	courier := ports.Courier{
		ID:       id,
		Name:     dto.Name,
		Approved: dto.Approved,
	}

	if dto.Lat != nil && dto.Lng != nil {
		point, pointErr := kernel.NewGeoPoint(*dto.Lat, *dto.Lng)
		if pointErr != nil {
			return ports.Courier{}, pointErr
		}
		courier.Location = &point
	}

	return courier, nil
}

// GormCourierRepository implements ports.CourierRepository using GORM.
type GormCourierRepository struct {
	db *gorm.DB
}

// NewGormCourierRepository creates a new GORM courier repository.
func NewGormCourierRepository(db *gorm.DB) *GormCourierRepository {
	return &GormCourierRepository{db: db}
}

// Get retrieves a courier by ID.
func (r *GormCourierRepository) Get(ctx context.Context, id kernel.UUID) (ports.Courier, error) {
	if err := id.Validate(); err != nil {
		return ports.Courier{}, err
	}

	var dto CourierDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Courier{}, errs.NewObjectNotFoundError("courier", id.String())
		}
		return ports.Courier{}, err
	}

	return toReadModel(dto)
}
