// README: Delivery aggregate and status definitions.
package delivery

import (
	"time"

	"freteiro/internal/types"
)

type Status string

const (
	StatusAvailable       Status = "available"
	StatusAccepted        Status = "accepted"
	StatusHeadingPickup   Status = "heading_pickup"
	StatusArrivedPickup   Status = "arrived_pickup"
	StatusPickedUp        Status = "picked_up"
	StatusHeadingDelivery Status = "heading_delivery"
	StatusArrivedDelivery Status = "arrived_delivery"
	StatusDelivered       Status = "delivered"
	StatusCancelled       Status = "cancelled"
)

// Delivery is the authoritative fulfillment record. The linked Order carries
// only a mirror of Status, maintained by the sync coordinator.
type Delivery struct {
	ID            types.ID
	OrderID       types.ID
	Status        Status
	StatusVersion int

	// DriverID and VehicleID are either both nil (unassigned) or both set.
	DriverID  *types.ID
	VehicleID *types.ID

	PickupAddress   string
	DeliveryAddress string
	Pickup          *types.Point
	Dropoff         *types.Point

	CustomerName string
	VendorName   string

	RequiredVehicleType string // empty means any vehicle type
	RequiresCrane       bool
	TotalWeightKg       float64 // zero means unspecified
	Materials           []string

	PickupTime   *time.Time
	DeliveryTime *time.Time

	DriverLocation *types.Point

	CreatedAt time.Time
}

// forwardSuccessor represents the delivery state flow (diagram) as code: each
// non-terminal state has exactly one legal forward successor; cancellation is
// handled separately in CanTransition.
var forwardSuccessor = map[Status]Status{
	StatusAvailable:       StatusAccepted,
	StatusAccepted:        StatusHeadingPickup,
	StatusHeadingPickup:   StatusArrivedPickup,
	StatusArrivedPickup:   StatusPickedUp,
	StatusPickedUp:        StatusHeadingDelivery,
	StatusHeadingDelivery: StatusArrivedDelivery,
	StatusArrivedDelivery: StatusDelivered,
}

// ForwardSuccessor returns the sole legal forward successor of from, if any.
func ForwardSuccessor(from Status) (Status, bool) {
	next, ok := forwardSuccessor[from]
	return next, ok
}

// Terminal reports whether s admits no further transitions.
func Terminal(s Status) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Valid reports whether s is a defined state-machine node.
func Valid(s Status) bool {
	if s == StatusDelivered || s == StatusCancelled {
		return true
	}
	_, ok := forwardSuccessor[s]
	return ok
}

// CanTransition reports whether from→to is a legal edge: the single forward
// successor, or cancellation from any non-terminal state.
func CanTransition(from, to Status) bool {
	if to == StatusCancelled {
		return !Terminal(from)
	}
	return forwardSuccessor[from] == to
}

// activeStatuses are the states in which a delivery occupies a driver.
var activeStatuses = []Status{
	StatusAccepted,
	StatusHeadingPickup,
	StatusArrivedPickup,
	StatusPickedUp,
	StatusHeadingDelivery,
	StatusArrivedDelivery,
}

// ActiveStatuses returns the non-terminal assigned states, in forward order.
func ActiveStatuses() []Status {
	out := make([]Status, len(activeStatuses))
	copy(out, activeStatuses)
	return out
}

// Assigned reports whether the delivery currently has a driver attached.
func (d *Delivery) Assigned() bool {
	return d.DriverID != nil && d.VehicleID != nil
}

// AssignedTo reports whether the delivery is currently held by driverID.
func (d *Delivery) AssignedTo(driverID types.ID) bool {
	return d.DriverID != nil && *d.DriverID == driverID
}
