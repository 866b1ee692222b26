package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
//
// State transitions:
//
//	created -> confirmed -> ready -> assigned -> picked_up -> delivering -> delivered
//	    \__________\_________\__________\____________\_____________/
//	                            cancelled (from any non-terminal state)
//
// The string form of each status is the wire contract and the value stored
// in event payloads.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	Unknown Status = iota

	// Created is the initial status set by the order-creation collaborator.
	Created

	// Confirmed means the business accepted the order; a courier task exists.
	Confirmed

	// Ready means the business finished preparing the order.
	Ready

	// Assigned means a courier won the task for this order.
	Assigned

	// PickedUp means the courier collected the order from the business.
	PickedUp

	// Delivering means the courier is en route to the customer.
	Delivering

	// Delivered is a terminal status: the order reached the customer.
	Delivered

	// Cancelled is a terminal status reachable from any non-terminal state.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "unknown",
		Created:    "created",
		Confirmed:  "confirmed",
		Ready:      "ready",
		Assigned:   "assigned",
		PickedUp:   "picked_up",
		Delivering: "delivering",
		Delivered:  "delivered",
		Cancelled:  "cancelled",
	}
}

// StatusFromString parses the wire form of a status.
func StatusFromString(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if str == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status",
		fmt.Errorf("%q is not a valid order status", s))
}

// Validate checks that the Status value is one of the defined states.
func (s Status) Validate() error {
	if s <= Unknown || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the wire form of the status. Implements fmt.Stringer.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// next maps each status to its single allowed forward successor.
func (s Status) next() Status {
	switch s {
	case Created:
		return Confirmed
	case Confirmed:
		return Ready
	case Ready:
		return Assigned
	case Assigned:
		return PickedUp
	case PickedUp:
		return Delivering
	case Delivering:
		return Delivered
	default:
		return Unknown
	}
}

// Advance transitions the status one step forward to target.
// Assigned is additionally reachable straight from Confirmed, because a
// courier may claim the task before the business marks the order ready.
func (s Status) Advance(target Status) (Status, error) {
	if err := target.Validate(); err != nil {
		return Unknown, err
	}

	if s.next() == target {
		return target, nil
	}
	if s == Confirmed && target == Assigned {
		return target, nil
	}

	return Unknown, errs.NewInvalidStateError(target.String(), s.String())
}

// Cancel transitions the status to Cancelled.
// Allowed exactly once, from any non-terminal state.
func (s Status) Cancel() (Status, error) {
	if err := s.Validate(); err != nil {
		return Unknown, err
	}
	if s.IsTerminal() {
		return Unknown, errs.NewInvalidStateError("cancel", s.String())
	}

	return Cancelled, nil
}
