// Package services provides domain services for the dispatch system:
// business logic that spans aggregates and does not naturally belong to a
// single aggregate root.
//
// The package includes:
//   - NearbyRanker: filters and ranks businesses with dispatchable tasks
//     around a courier's position
package services
