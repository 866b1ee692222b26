package services

import (
	"sort"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// BusinessCandidate is the read-model input to ranking: an approved business
// with an optional location and its count of waiting tasks.
type BusinessCandidate struct {
	ID           kernel.UUID
	Name         string
	Location     *kernel.GeoPoint
	PendingCount int
}

// RankedBusiness is a candidate that passed the filters, with its computed
// distance from the courier.
type RankedBusiness struct {
	ID           kernel.UUID
	Name         string
	Location     kernel.GeoPoint
	PendingCount int
	DistanceM    float64
}

// NearbyRanker selects the businesses a courier should see: those within a
// search radius that currently have dispatchable work.
//
// Filtering rules:
//   - businesses without coordinates are excluded, not errored
//   - businesses with zero waiting tasks are excluded
//   - businesses farther than the radius are excluded
//
// Results are sorted ascending by distance; equidistant businesses are
// ordered by waiting-task count, busiest first.
//
// The ranker is a pure in-process scan over the fetched candidates. At
// low-thousands business counts this O(n) pass is sufficient; a geospatial
// index would only change how candidates are fetched, not this interface.
type NearbyRanker struct{}

// NewNearbyRanker creates a new NearbyRanker instance.
func NewNearbyRanker() NearbyRanker {
	return NearbyRanker{}
}

// Rank filters and orders candidates around courierPos.
// radiusM must be positive; courierPos must be a constructed point.
func (r NearbyRanker) Rank(
	courierPos kernel.GeoPoint,
	radiusM float64,
	candidates []BusinessCandidate,
) ([]RankedBusiness, error) {
	if err := courierPos.Validate(); err != nil {
		return nil, err
	}
	if radiusM <= 0 {
		return nil, errs.NewValueIsInvalidError("radius_m")
	}

	ranked := make([]RankedBusiness, 0, len(candidates))
	for _, c := range candidates {
		if c.Location == nil || c.PendingCount <= 0 {
			continue
		}

		distance, err := courierPos.Distance(*c.Location)
		if err != nil {
			return nil, err
		}
		if distance > radiusM {
			continue
		}

		ranked = append(ranked, RankedBusiness{
			ID:           c.ID,
			Name:         c.Name,
			Location:     *c.Location,
			PendingCount: c.PendingCount,
			DistanceM:    distance,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DistanceM != ranked[j].DistanceM {
			return ranked[i].DistanceM < ranked[j].DistanceM
		}
		return ranked[i].PendingCount > ranked[j].PendingCount
	})

	return ranked, nil
}
