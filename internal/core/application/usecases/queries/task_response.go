package queries

import (
	"database/sql"
	"encoding/json"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// TaskResponse is the read model of a courier task, enriched with order
// details the courier needs before and during the ride. The order fields are
// read-only context; mutating an order goes through its own commands.
type TaskResponse struct {
	ID              kernel.UUID
	OrderID         kernel.UUID
	BusinessID      kernel.UUID
	CourierID       *kernel.UUID
	CourierName     string
	Status          string
	PickupAddress   string
	DropoffAddress  string
	PickupPoint     kernel.GeoPoint
	DropoffPoint    kernel.GeoPoint
	UnitDeliveryFee float64
	CustomerName    string
	PaymentMethod   string
	Items           []order.Item
	CreatedAt       time.Time
	AssignedAt      *time.Time
}

// taskQueryColumns is the select list every task query shares; scanTaskRow
// depends on this exact order.
const taskQueryColumns = `
	t.id,
	t.order_id,
	t.business_id,
	t.courier_id,
	t.courier_name,
	t.status,
	t.pickup_address,
	t.dropoff_address,
	t.pickup_lat,
	t.pickup_lng,
	t.dropoff_lat,
	t.dropoff_lng,
	t.unit_delivery_fee,
	t.created_at,
	t.assigned_at,
	o.customer_name,
	o.payment_method,
	o.items`

// scanTaskRow maps one joined task+order row into a TaskResponse.
func scanTaskRow(rows *sql.Rows) (TaskResponse, error) {
	var (
		id, orderID, businessID       uuid.UUID
		courierID                     uuid.NullUUID
		courierName, status           string
		pickupAddress, dropoffAddress string
		pickupLat, pickupLng          float64
		dropoffLat, dropoffLng        float64
		fee                           float64
		createdAt                     time.Time
		assignedAt                    sql.NullTime
		customerName, paymentMethod   string
		itemsRaw                      []byte
	)

	if err := rows.Scan(
		&id, &orderID, &businessID, &courierID, &courierName, &status,
		&pickupAddress, &dropoffAddress,
		&pickupLat, &pickupLng, &dropoffLat, &dropoffLng,
		&fee, &createdAt, &assignedAt,
		&customerName, &paymentMethod, &itemsRaw,
	); err != nil {
		return TaskResponse{}, err
	}

	taskID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return TaskResponse{}, err
	}
	taskOrderID, err := kernel.UUIDFromBytes(orderID[:])
	if err != nil {
		return TaskResponse{}, err
	}
	taskBusinessID, err := kernel.UUIDFromBytes(businessID[:])
	if err != nil {
		return TaskResponse{}, err
	}

	pickup, err := kernel.NewGeoPoint(pickupLat, pickupLng)
	if err != nil {
		return TaskResponse{}, err
	}
	dropoff, err := kernel.NewGeoPoint(dropoffLat, dropoffLng)
	if err != nil {
		return TaskResponse{}, err
	}

	response := TaskResponse{
		ID:              taskID,
		OrderID:         taskOrderID,
		BusinessID:      taskBusinessID,
		CourierName:     courierName,
		Status:          status,
		PickupAddress:   pickupAddress,
		DropoffAddress:  dropoffAddress,
		PickupPoint:     pickup,
		DropoffPoint:    dropoff,
		UnitDeliveryFee: fee,
		CustomerName:    customerName,
		PaymentMethod:   paymentMethod,
		CreatedAt:       createdAt,
	}

	if assignedAt.Valid {
		at := assignedAt.Time
		response.AssignedAt = &at
	}

	if courierID.Valid {
		cid, cidErr := kernel.UUIDFromBytes(courierID.UUID[:])
		if cidErr != nil {
			return TaskResponse{}, cidErr
		}
		response.CourierID = &cid
	}

	if len(itemsRaw) > 0 {
		if err = json.Unmarshal(itemsRaw, &response.Items); err != nil {
			return TaskResponse{}, err
		}
	}

	return response, nil
}

// collectTaskRows drains a task query result set.
func collectTaskRows(rows *sql.Rows) ([]TaskResponse, error) {
	defer rows.Close()

	responses := make([]TaskResponse, 0)
	for rows.Next() {
		response, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return responses, nil
}
