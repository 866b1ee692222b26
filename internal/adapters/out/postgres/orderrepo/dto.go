// Package orderrepo provides data transfer objects and mapping functions for
// order persistence. Implements the repository pattern for the order
// aggregate, converting between domain entities and database rows.
package orderrepo

import (
	"encoding/json"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order
// aggregates. Items and timeline are stored as JSONB documents; they are
// read and appended as a whole, never queried per element.
type OrderDTO struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BusinessID      uuid.UUID  `gorm:"type:uuid;index"`
	CustomerID      uuid.UUID  `gorm:"type:uuid"`
	CustomerName    string     `gorm:"type:text"`
	Status          string     `gorm:"type:text;index"`
	Items           []byte     `gorm:"type:jsonb"`
	DeliveryAddress AddressDTO `gorm:"embedded;embeddedPrefix:delivery_"`
	Subtotal        float64
	DeliveryFee     float64
	Discount        float64
	GrandTotal      float64
	PaymentMethod   string `gorm:"type:text"`
	Timeline        []byte `gorm:"type:jsonb"`
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// AddressDTO represents the embedded delivery destination within the order
// table.
type AddressDTO struct {
	Label string `gorm:"type:text"`
	Text  string `gorm:"type:text"`
	Lat   float64
	Lng   float64
}

// fromDomain converts an order domain aggregate to its database
// representation.
func fromDomain(aggregate *order.Order) (OrderDTO, error) {
	items, err := json.Marshal(aggregate.Items())
	if err != nil {
		return OrderDTO{}, err
	}

	timeline, err := json.Marshal(aggregate.Timeline())
	if err != nil {
		return OrderDTO{}, err
	}

	address := aggregate.DeliveryAddress()
	totals := aggregate.Totals()

	return OrderDTO{
		ID:           aggregate.ID().Bytes(),
		BusinessID:   aggregate.BusinessID().Bytes(),
		CustomerID:   aggregate.CustomerID().Bytes(),
		CustomerName: aggregate.CustomerName(),
		Status:       aggregate.Status().String(),
		Items:        items,
		DeliveryAddress: AddressDTO{
			Label: address.Label,
			Text:  address.Text,
			Lat:   address.Point.Lat(),
			Lng:   address.Point.Lng(),
		},
		Subtotal:      totals.Subtotal,
		DeliveryFee:   totals.DeliveryFee,
		Discount:      totals.Discount,
		GrandTotal:    totals.Grand,
		PaymentMethod: aggregate.PaymentMethod(),
		Timeline:      timeline,
	}, nil
}

// toDomain converts a database DTO back into an order aggregate via
// RestoreOrder.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	businessID, err := kernel.UUIDFromBytes(dto.BusinessID[:])
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}

	status, err := order.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	point, err := kernel.NewGeoPoint(dto.DeliveryAddress.Lat, dto.DeliveryAddress.Lng)
	if err != nil {
		return nil, err
	}

	var items []order.Item
	if len(dto.Items) > 0 {
		if err = json.Unmarshal(dto.Items, &items); err != nil {
			return nil, err
		}
	}

	var timeline []order.TimelineEvent
	if len(dto.Timeline) > 0 {
		if err = json.Unmarshal(dto.Timeline, &timeline); err != nil {
			return nil, err
		}
	}

	return order.RestoreOrder(
		id, businessID, customerID, dto.CustomerName, status, items,
		order.Address{Label: dto.DeliveryAddress.Label, Text: dto.DeliveryAddress.Text, Point: point},
		order.Totals{
			Subtotal:    dto.Subtotal,
			DeliveryFee: dto.DeliveryFee,
			Discount:    dto.Discount,
			Grand:       dto.GrandTotal,
		},
		dto.PaymentMethod,
		timeline,
	)
}
