package order

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrOrderIsNotConstructed is returned when an Order instance was not created
// through NewOrder or RestoreOrder.
var ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")

// Item is one line of an order: a product reference with a captured title,
// unit price, and quantity.
type Item struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// Address is a delivery destination: a label ("home"), the free-text
// address, and resolved coordinates.
type Address struct {
	Label string
	Text  string
	Point kernel.GeoPoint
}

// Totals holds the monetary breakdown of an order.
type Totals struct {
	Subtotal    float64
	DeliveryFee float64
	Discount    float64
	Grand       float64
}

// TimelineEvent is one append-only entry in the order's history.
type TimelineEvent struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

// Order is the aggregate root for a customer purchase. The dispatch core
// mutates only its status and timeline; the remaining fields are written
// once by the (out-of-scope) order-creation collaborator.
//
// Invariant: status moves monotonically along the defined sequence, except
// for cancellation, which is reachable from any non-terminal state exactly
// once. Orders are never deleted.
type Order struct {
	id              kernel.UUID
	businessID      kernel.UUID
	customerID      kernel.UUID
	customerName    string
	status          Status
	items           []Item
	deliveryAddress Address
	totals          Totals
	paymentMethod   string
	timeline        []TimelineEvent
	guard           guard.ConstructorGuard
}

// NewOrder creates an order in Created status with an opening timeline entry.
// The items list must not be empty and the delivery address must carry a
// valid coordinate pair.
func NewOrder(
	id kernel.UUID,
	businessID kernel.UUID,
	customerID kernel.UUID,
	customerName string,
	items []Item,
	deliveryAddress Address,
	totals Totals,
	paymentMethod string,
) (*Order, error) {
	o := &Order{
		status: Created,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setBusinessID(businessID),
		o.setCustomerID(customerID),
		o.setItems(items),
		o.setDeliveryAddress(deliveryAddress),
	); err != nil {
		return nil, err
	}

	o.customerName = customerName
	o.totals = totals
	o.paymentMethod = paymentMethod
	o.appendTimeline("order.created")

	return o, nil
}

// RestoreOrder reconstructs an order from persistence. Unlike NewOrder it
// accepts any valid status and an existing timeline, and tolerates an empty
// items list so historical records always rehydrate.
func RestoreOrder(
	id kernel.UUID,
	businessID kernel.UUID,
	customerID kernel.UUID,
	customerName string,
	status Status,
	items []Item,
	deliveryAddress Address,
	totals Totals,
	paymentMethod string,
	timeline []TimelineEvent,
) (*Order, error) {
	o := &Order{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setBusinessID(businessID),
		o.setCustomerID(customerID),
		o.setDeliveryAddress(deliveryAddress),
		status.Validate(),
	); err != nil {
		return nil, err
	}

	o.status = status
	o.items = items
	o.customerName = customerName
	o.totals = totals
	o.paymentMethod = paymentMethod
	o.timeline = timeline

	return o, nil
}

// Validate ensures the Order was created through a constructor.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// IsEqual compares two orders by identity.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// BusinessID returns the identifier of the business the order was placed with.
func (o *Order) BusinessID() kernel.UUID {
	return o.businessID
}

// CustomerID returns the identifier of the ordering customer.
func (o *Order) CustomerID() kernel.UUID {
	return o.customerID
}

// CustomerName returns the denormalized customer display name.
func (o *Order) CustomerName() string {
	return o.customerName
}

// Status returns the current lifecycle status.
func (o *Order) Status() Status {
	return o.status
}

// Items returns the order lines.
func (o *Order) Items() []Item {
	return o.items
}

// DeliveryAddress returns the delivery destination.
func (o *Order) DeliveryAddress() Address {
	return o.deliveryAddress
}

// Totals returns the monetary breakdown.
func (o *Order) Totals() Totals {
	return o.totals
}

// PaymentMethod returns the payment method chosen at checkout.
func (o *Order) PaymentMethod() string {
	return o.paymentMethod
}

// Timeline returns the append-only history of the order.
func (o *Order) Timeline() []TimelineEvent {
	return o.timeline
}

// Confirm transitions the order from Created to Confirmed.
func (o *Order) Confirm() error {
	return o.advance(Confirmed)
}

// MarkReady transitions the order from Confirmed to Ready.
func (o *Order) MarkReady() error {
	return o.advance(Ready)
}

// Assign transitions the order to Assigned. Allowed from Confirmed or Ready;
// the winning courier is recorded on the task, not here.
func (o *Order) Assign() error {
	return o.advance(Assigned)
}

// MarkPickedUp transitions the order from Assigned to PickedUp.
func (o *Order) MarkPickedUp() error {
	return o.advance(PickedUp)
}

// MarkDelivering transitions the order from PickedUp to Delivering.
func (o *Order) MarkDelivering() error {
	return o.advance(Delivering)
}

// MarkDelivered transitions the order from Delivering to Delivered.
func (o *Order) MarkDelivered() error {
	return o.advance(Delivered)
}

// Cancel marks the order cancelled. Allowed exactly once, from any
// non-terminal state.
func (o *Order) Cancel() error {
	newStatus, err := o.status.Cancel()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.appendTimeline("order.cancelled")
	return nil
}

func (o *Order) advance(target Status) error {
	newStatus, err := o.status.Advance(target)
	if err != nil {
		return err
	}

	o.status = newStatus
	o.appendTimeline("order." + newStatus.String())
	return nil
}

func (o *Order) appendTimeline(event string) {
	o.timeline = append(o.timeline, TimelineEvent{
		Event:     event,
		Timestamp: time.Now().UTC(),
	})
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setBusinessID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.businessID = id
	return nil
}

func (o *Order) setCustomerID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.customerID = id
	return nil
}

func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	o.items = items
	return nil
}

func (o *Order) setDeliveryAddress(address Address) error {
	if err := address.Point.Validate(); err != nil {
		return err
	}
	o.deliveryAddress = address
	return nil
}
