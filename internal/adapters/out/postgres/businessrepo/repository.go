// Package businessrepo provides read-only access to the business directory.
// Businesses are owned by an external registration system; the dispatch core
// only reads them for pickup locations and nearby search.
package businessrepo

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BusinessDTO represents the database structure of a business record.
// Coordinates are nullable; a business may exist before it is pinned on the
// map.
type BusinessDTO struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name     string    `gorm:"type:text"`
	Address  string    `gorm:"type:text"`
	Lat      *float64
	Lng      *float64
	Approved bool `gorm:"index"`
}

// TableName specifies the database table name for business entities.
func (BusinessDTO) TableName() string {
	return "businesses"
}

func toReadModel(dto BusinessDTO) (ports.Business, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return ports.Business{}, err
	}

	business := ports.Business{
		ID:       id,
		Name:     dto.Name,
		Address:  dto.Address,
		Approved: dto.Approved,
	}

	if dto.Lat != nil && dto.Lng != nil {
		point, pointErr := kernel.NewGeoPoint(*dto.Lat, *dto.Lng)
		if pointErr != nil {
			return ports.Business{}, pointErr
		}
		business.Location = &point
	}

	return business, nil
}

// GormBusinessRepository implements ports.BusinessRepository using GORM.
type GormBusinessRepository struct {
	db *gorm.DB
}

// NewGormBusinessRepository creates a new GORM business repository.
func NewGormBusinessRepository(db *gorm.DB) *GormBusinessRepository {
	return &GormBusinessRepository{db: db}
}

// Get retrieves a business by ID.
func (r *GormBusinessRepository) Get(ctx context.Context, id kernel.UUID) (ports.Business, error) {
	if err := id.Validate(); err != nil {
		return ports.Business{}, err
	}

	var dto BusinessDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Business{}, errs.NewObjectNotFoundError("business", id.String())
		}
		return ports.Business{}, err
	}

	return toReadModel(dto)
}

// GetAllApproved retrieves every approved business.
func (r *GormBusinessRepository) GetAllApproved(ctx context.Context) ([]ports.Business, error) {
	var dtos []BusinessDTO
	if err := r.db.WithContext(ctx).Find(&dtos, "approved = ?", true).Error; err != nil {
		return nil, err
	}

	businesses := make([]ports.Business, 0, len(dtos))
	for _, dto := range dtos {
		business, err := toReadModel(dto)
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, business)
	}

	return businesses, nil
}
