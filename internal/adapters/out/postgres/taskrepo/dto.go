// Package taskrepo provides data transfer objects and mapping functions for
// courier task persistence. The task table is the contested surface of the
// whole system; its repository exposes a conditional update instead of a
// plain save so every lifecycle transition is a single atomic statement.
package taskrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"

	"github.com/google/uuid"
)

// TaskDTO represents the database structure for persisting task aggregates.
// The unique index on order_id is the storage-level guarantee that one order
// never spawns two tasks.
type TaskDTO struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID         uuid.UUID  `gorm:"type:uuid;uniqueIndex"`
	BusinessID      uuid.UUID  `gorm:"type:uuid;index"`
	CourierID       *uuid.UUID `gorm:"type:uuid;index"`
	CourierName     string     `gorm:"type:text"`
	Status          string     `gorm:"type:text;index"`
	PickupLat       float64
	PickupLng       float64
	DropoffLat      float64
	DropoffLng      float64
	PickupAddress   string `gorm:"type:text"`
	DropoffAddress  string `gorm:"type:text"`
	UnitDeliveryFee float64
	CreatedAt       time.Time
	AssignedAt      *time.Time
}

// TableName specifies the database table name for task entities.
func (TaskDTO) TableName() string {
	return "tasks"
}

// fromDomain converts a task domain aggregate to its database representation.
func fromDomain(aggregate *task.Task) TaskDTO {
	var courierID *uuid.UUID
	if id := aggregate.Courier(); id != nil {
		raw := id.Bytes()
		courierID = &raw
	}

	return TaskDTO{
		ID:              aggregate.ID().Bytes(),
		OrderID:         aggregate.OrderID().Bytes(),
		BusinessID:      aggregate.BusinessID().Bytes(),
		CourierID:       courierID,
		CourierName:     aggregate.CourierName(),
		Status:          aggregate.Status().String(),
		PickupLat:       aggregate.PickupCoords().Lat(),
		PickupLng:       aggregate.PickupCoords().Lng(),
		DropoffLat:      aggregate.DropoffCoords().Lat(),
		DropoffLng:      aggregate.DropoffCoords().Lng(),
		PickupAddress:   aggregate.PickupAddress(),
		DropoffAddress:  aggregate.DropoffAddress(),
		UnitDeliveryFee: aggregate.UnitDeliveryFee(),
		CreatedAt:       aggregate.CreatedAt(),
		AssignedAt:      aggregate.AssignedAt(),
	}
}

// toDomain converts a database DTO back into a task aggregate via
// RestoreTask.
func toDomain(dto TaskDTO) (*task.Task, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	businessID, err := kernel.UUIDFromBytes(dto.BusinessID[:])
	if err != nil {
		return nil, err
	}

	var courierID *kernel.UUID
	if dto.CourierID != nil {
		cID, courierErr := kernel.UUIDFromBytes((*dto.CourierID)[:])
		if courierErr != nil {
			return nil, courierErr
		}
		courierID = &cID
	}

	status, err := task.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	pickup, err := kernel.NewGeoPoint(dto.PickupLat, dto.PickupLng)
	if err != nil {
		return nil, err
	}
	dropoff, err := kernel.NewGeoPoint(dto.DropoffLat, dto.DropoffLng)
	if err != nil {
		return nil, err
	}

	return task.RestoreTask(
		id, orderID, businessID, courierID, dto.CourierName, status,
		pickup, dropoff, dto.PickupAddress, dto.DropoffAddress,
		dto.UnitDeliveryFee, dto.CreatedAt, dto.AssignedAt,
	)
}
