// Package order provides the Order aggregate for the dispatch system.
// An order represents a customer purchase placed with a business; the
// dispatch core owns its status lifecycle from business confirmation onward.
//
// The package includes:
//   - Order: the aggregate root holding identity, items, delivery address,
//     totals, and an append-only timeline
//   - Status: a state machine enforcing the order lifecycle
//
// Key business rules:
//   - Status moves monotonically along created -> confirmed -> ready ->
//     assigned -> picked_up -> delivering -> delivered
//   - Cancelled is reachable from any non-terminal state exactly once
//   - Orders are never deleted, only marked terminal
//   - Every transition appends a timeline entry
package order
