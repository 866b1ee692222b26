package task

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrTaskIsNotConstructed is returned when a Task instance was not created
// through NewTask or RestoreTask.
var ErrTaskIsNotConstructed = errors.New("Task must be created via NewTask or RestoreTask constructor")

// Task is the aggregate root for a dispatchable delivery. It is derived 1:1
// from a confirmed order and is the single contested resource of the
// dispatch core: many couriers may race to claim it, exactly one wins.
//
// Invariants:
//   - Courier() is nil if and only if Status() is Waiting
//   - Once the task leaves Waiting, the courier never changes
type Task struct {
	id              kernel.UUID
	orderID         kernel.UUID
	businessID      kernel.UUID
	courierID       *kernel.UUID
	courierName     string
	status          Status
	pickupCoords    kernel.GeoPoint
	dropoffCoords   kernel.GeoPoint
	pickupAddress   string
	dropoffAddress  string
	unitDeliveryFee float64
	createdAt       time.Time
	assignedAt      *time.Time
	guard           guard.ConstructorGuard
}

// NewTask creates a task in Waiting status with no courier.
// The pickup point is the business location and the dropoff point the
// order's delivery destination; the fee is the courier's earning and must
// not be negative.
func NewTask(
	id kernel.UUID,
	orderID kernel.UUID,
	businessID kernel.UUID,
	pickupCoords kernel.GeoPoint,
	dropoffCoords kernel.GeoPoint,
	pickupAddress string,
	dropoffAddress string,
	unitDeliveryFee float64,
) (*Task, error) {
	t := &Task{
		status:    Waiting,
		createdAt: time.Now().UTC(),
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		t.setID(id),
		t.setOrderID(orderID),
		t.setBusinessID(businessID),
		t.setPickupCoords(pickupCoords),
		t.setDropoffCoords(dropoffCoords),
		t.setUnitDeliveryFee(unitDeliveryFee),
	); err != nil {
		return nil, err
	}

	t.pickupAddress = pickupAddress
	t.dropoffAddress = dropoffAddress

	return t, nil
}

// RestoreTask reconstructs a task from persistence. It enforces the
// courier/status consistency invariant so corrupted rows surface on read.
func RestoreTask(
	id kernel.UUID,
	orderID kernel.UUID,
	businessID kernel.UUID,
	courierID *kernel.UUID,
	courierName string,
	status Status,
	pickupCoords kernel.GeoPoint,
	dropoffCoords kernel.GeoPoint,
	pickupAddress string,
	dropoffAddress string,
	unitDeliveryFee float64,
	createdAt time.Time,
	assignedAt *time.Time,
) (*Task, error) {
	t := &Task{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		t.setID(id),
		t.setOrderID(orderID),
		t.setBusinessID(businessID),
		t.setPickupCoords(pickupCoords),
		t.setDropoffCoords(dropoffCoords),
		t.setUnitDeliveryFee(unitDeliveryFee),
		status.Validate(),
		validateCourierForStatus(status, courierID),
	); err != nil {
		return nil, err
	}

	if courierID != nil {
		if err := courierID.Validate(); err != nil {
			return nil, err
		}
		cID := *courierID
		t.courierID = &cID
	}

	t.status = status
	t.courierName = courierName
	t.pickupAddress = pickupAddress
	t.dropoffAddress = dropoffAddress
	t.createdAt = createdAt
	t.assignedAt = assignedAt

	return t, nil
}

// validateCourierForStatus enforces: courier unset iff status is waiting.
// A cancelled task may or may not carry a courier depending on when it was
// cancelled.
func validateCourierForStatus(status Status, courierID *kernel.UUID) error {
	if status == Waiting && courierID != nil {
		return errs.NewValueIsInvalidErrorWithCause("courier_id",
			fmt.Errorf("waiting task must not have a courier"))
	}
	if courierID == nil && status != Waiting && status != Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("courier_id",
			fmt.Errorf("%s task must have a courier", status))
	}
	return nil
}

// Validate ensures the Task was created through a constructor.
func (t *Task) Validate() error {
	if t == nil {
		return ErrTaskIsNotConstructed
	}
	return t.guard.Validate(ErrTaskIsNotConstructed)
}

// IsEqual compares two tasks by identity.
func (t *Task) IsEqual(other *Task) bool {
	return other != nil && t.id.IsEqual(other.id)
}

// ID returns the task's unique identifier.
func (t *Task) ID() kernel.UUID {
	return t.id
}

// OrderID returns the identifier of the order this task delivers.
func (t *Task) OrderID() kernel.UUID {
	return t.orderID
}

// BusinessID returns the identifier of the pickup business.
func (t *Task) BusinessID() kernel.UUID {
	return t.businessID
}

// Courier returns the awarded courier's ID, or nil while waiting.
func (t *Task) Courier() *kernel.UUID {
	return t.courierID
}

// CourierName returns the awarded courier's display name.
func (t *Task) CourierName() string {
	return t.courierName
}

// Status returns the current lifecycle status.
func (t *Task) Status() Status {
	return t.status
}

// PickupCoords returns the pickup point (business location).
func (t *Task) PickupCoords() kernel.GeoPoint {
	return t.pickupCoords
}

// DropoffCoords returns the dropoff point (delivery destination).
func (t *Task) DropoffCoords() kernel.GeoPoint {
	return t.dropoffCoords
}

// PickupAddress returns the human-readable pickup address.
func (t *Task) PickupAddress() string {
	return t.pickupAddress
}

// DropoffAddress returns the human-readable dropoff address.
func (t *Task) DropoffAddress() string {
	return t.dropoffAddress
}

// UnitDeliveryFee returns the courier's earning for this task.
func (t *Task) UnitDeliveryFee() float64 {
	return t.unitDeliveryFee
}

// CreatedAt returns when the task was created.
func (t *Task) CreatedAt() time.Time {
	return t.createdAt
}

// AssignedAt returns when the task was awarded, or nil while waiting.
func (t *Task) AssignedAt() *time.Time {
	return t.assignedAt
}

// IsOwnedBy reports whether the task is currently awarded to courierID.
func (t *Task) IsOwnedBy(courierID kernel.UUID) bool {
	return t.courierID != nil && t.courierID.IsEqual(courierID)
}

// Assign awards the task to a courier. Only valid from Waiting with no
// courier set; the award is permanent.
//
// Under concurrency this method models the transition; the atomic
// first-courier-wins guarantee comes from the repository's conditional
// update, which applies the same precondition in a single storage write.
func (t *Task) Assign(courierID kernel.UUID, courierName string, at time.Time) error {
	if err := courierID.Validate(); err != nil {
		return err
	}
	if courierName == "" {
		return errs.NewValueIsRequiredError("courier_name")
	}
	if t.courierID != nil {
		return errs.NewConflictError("task", t.id.String())
	}

	newStatus, err := t.status.Advance(Assigned)
	if err != nil {
		return err
	}

	t.status = newStatus
	t.courierID = &courierID
	t.courierName = courierName
	assignedAt := at.UTC()
	t.assignedAt = &assignedAt
	return nil
}

// MarkPickedUp records that the owning courier collected the order.
func (t *Task) MarkPickedUp(courierID kernel.UUID) error {
	return t.progress(courierID, PickedUp)
}

// MarkDelivering records that the owning courier is en route to the dropoff.
func (t *Task) MarkDelivering(courierID kernel.UUID) error {
	return t.progress(courierID, Delivering)
}

// MarkDelivered records that the owning courier completed the delivery.
func (t *Task) MarkDelivered(courierID kernel.UUID) error {
	return t.progress(courierID, Delivered)
}

// Cancel marks the task cancelled. Allowed from any non-terminal state;
// an already awarded courier keeps its attribution for bookkeeping.
func (t *Task) Cancel() error {
	newStatus, err := t.status.Cancel()
	if err != nil {
		return err
	}

	t.status = newStatus
	return nil
}

// progress applies a delivery-progress transition on behalf of courierID.
// The courier must own the task; these are single-owner updates, not
// contested ones.
func (t *Task) progress(courierID kernel.UUID, target Status) error {
	if err := courierID.Validate(); err != nil {
		return err
	}
	if !t.IsOwnedBy(courierID) {
		return errs.NewForbiddenError(courierID.String(), "task "+t.id.String())
	}

	newStatus, err := t.status.Advance(target)
	if err != nil {
		return err
	}

	t.status = newStatus
	return nil
}

func (t *Task) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	t.id = id
	return nil
}

func (t *Task) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	t.orderID = id
	return nil
}

func (t *Task) setBusinessID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	t.businessID = id
	return nil
}

func (t *Task) setPickupCoords(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}
	t.pickupCoords = p
	return nil
}

func (t *Task) setDropoffCoords(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}
	t.dropoffCoords = p
	return nil
}

func (t *Task) setUnitDeliveryFee(fee float64) error {
	if fee < 0 {
		return errs.NewValueIsInvalidErrorWithCause("unit_delivery_fee",
			fmt.Errorf("%f is negative", fee))
	}
	t.unitDeliveryFee = fee
	return nil
}
