package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// Courier is the read model of an external courier identity. The dispatch
// core never mutates couriers.
type Courier struct {
	ID       kernel.UUID
	Name     string
	Location *kernel.GeoPoint
	Approved bool
}

// CourierRepository provides read-only access to couriers.
type CourierRepository interface {
	// Get retrieves a courier by its identifier.
	Get(ctx context.Context, id kernel.UUID) (Courier, error)
}
