// Package queries contains read-only operations against the dispatch store.
// Queries bypass the aggregate repositories and read projections directly
// via gorm, keeping the read path free of domain-model overhead.
package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrNearbyBusinessesQueryIsNotConstructed = errors.New(
	"NearbyBusinessesQuery must be created via NewNearbyBusinessesQuery constructor",
)

// NearbyBusinessesQuery finds businesses around a courier's position that
// currently have waiting tasks. Powers the courier's "where is work" screen.
//
// Example:
//
//	query, _ := NewNearbyBusinessesQuery(41.015, 28.979, 3000)
//	handler := NewNearbyBusinessesQueryHandler(db)
//
//	businesses, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return err
//	}
//	for _, b := range businesses {
//	    fmt.Printf("%s: %d tasks, %.0fm away\n", b.Name, b.PendingCount, b.DistanceM)
//	}
type NearbyBusinessesQuery struct {
	position kernel.GeoPoint
	radiusM  float64
	guard    guard.ConstructorGuard
}

// NewNearbyBusinessesQuery creates a validated nearby query.
// The radius is in meters and must be positive.
func NewNearbyBusinessesQuery(lat, lng, radiusM float64) (NearbyBusinessesQuery, error) {
	position, err := kernel.NewGeoPoint(lat, lng)
	if err != nil {
		return NearbyBusinessesQuery{}, err
	}
	if radiusM <= 0 {
		return NearbyBusinessesQuery{}, errs.NewValueIsInvalidError("radius_m")
	}

	return NearbyBusinessesQuery{
		position: position,
		radiusM:  radiusM,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Position returns the courier's search position.
func (q NearbyBusinessesQuery) Position() kernel.GeoPoint {
	return q.position
}

// RadiusM returns the search radius in meters.
func (q NearbyBusinessesQuery) RadiusM() float64 {
	return q.radiusM
}

// Validate ensures the query was created through the constructor.
func (q NearbyBusinessesQuery) Validate() error {
	return q.guard.Validate(ErrNearbyBusinessesQueryIsNotConstructed)
}

// NearbyBusinessResponse is one business a courier can ride to for work.
type NearbyBusinessResponse struct {
	ID           kernel.UUID
	Name         string
	Location     kernel.GeoPoint
	PendingCount int
	DistanceM    float64
}
