package queries

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/domain/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NearbyBusinessesQueryHandler fetches approved businesses with their
// waiting-task counts and ranks them around the courier's position.
//
// The fetch is a single aggregate join; the distance filter and ordering
// live in the pure NearbyRanker so they stay testable without a database.
type NearbyBusinessesQueryHandler struct {
	db     *gorm.DB
	ranker services.NearbyRanker
}

// NewNearbyBusinessesQueryHandler creates a handler for nearby search.
// Requires a GORM database connection for query execution.
func NewNearbyBusinessesQueryHandler(db *gorm.DB) NearbyBusinessesQueryHandler {
	return NearbyBusinessesQueryHandler{db: db, ranker: services.NewNearbyRanker()}
}

// Handle executes the nearby search.
// Businesses without coordinates or without waiting tasks never appear;
// results are sorted nearest first.
func (h NearbyBusinessesQueryHandler) Handle(
	ctx context.Context,
	query NearbyBusinessesQuery,
) ([]NearbyBusinessResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			b.id,
			b.name,
			b.lat,
			b.lng,
			COUNT(t.id) AS pending
		FROM businesses b
		LEFT JOIN tasks t ON t.business_id = b.id AND t.status = ?
		WHERE b.approved
		GROUP BY b.id, b.name, b.lat, b.lng
	`, task.Waiting.String()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]services.BusinessCandidate, 0)

	for rows.Next() {
		var id uuid.UUID
		var name string
		var lat, lng *float64
		var pending int

		if err = rows.Scan(&id, &name, &lat, &lng, &pending); err != nil {
			return nil, err
		}

		businessID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}

		candidate := services.BusinessCandidate{
			ID:           businessID,
			Name:         name,
			PendingCount: pending,
		}

		if lat != nil && lng != nil {
			point, pointErr := kernel.NewGeoPoint(*lat, *lng)
			if pointErr != nil {
				return nil, pointErr
			}
			candidate.Location = &point
		}

		candidates = append(candidates, candidate)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	ranked, err := h.ranker.Rank(query.Position(), query.RadiusM(), candidates)
	if err != nil {
		return nil, err
	}

	responses := make([]NearbyBusinessResponse, 0, len(ranked))
	for _, r := range ranked {
		responses = append(responses, NearbyBusinessResponse{
			ID:           r.ID,
			Name:         r.Name,
			Location:     r.Location,
			PendingCount: r.PendingCount,
			DistanceM:    r.DistanceM,
		})
	}

	return responses, nil
}
