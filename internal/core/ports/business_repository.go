package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// Business is the read model of an external business entity. The dispatch
// core never mutates businesses; it reads them for pickup locations and
// nearby search.
type Business struct {
	ID       kernel.UUID
	Name     string
	Address  string
	Location *kernel.GeoPoint
	Approved bool
}

// BusinessRepository provides read-only access to businesses.
type BusinessRepository interface {
	// Get retrieves a business by its identifier.
	Get(ctx context.Context, id kernel.UUID) (Business, error)

	// GetAllApproved retrieves every approved business.
	// Businesses without coordinates are included; callers decide how to
	// treat them.
	GetAllApproved(ctx context.Context) ([]Business, error)
}
