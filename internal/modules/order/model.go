// README: Marketplace order record; this subsystem only ever writes delivery_status.
package order

import (
	"time"

	"freteiro/internal/modules/delivery"
	"freteiro/internal/types"
)

// DeliveryStatusPending is the mirror value before any delivery exists.
// Every other mirror value is a delivery.Status verbatim.
const DeliveryStatusPending = delivery.Status("pending")

// Order is created and owned by the marketplace. delivery_status mirrors the
// linked delivery's status and is written exclusively by the sync
// coordinator; all other fields are read-only here.
type Order struct {
	ID             types.ID
	Status         string
	DeliveryStatus delivery.Status
	DeliveryID     *types.ID

	Items         []string
	TotalWeightKg float64

	PickupAddress   string
	DeliveryAddress string
	Pickup          *types.Point
	Dropoff         *types.Point

	CustomerName string
	VendorName   string

	RequiredVehicleType string
	RequiresCrane       bool

	RequiresDelivery bool

	CreatedAt time.Time
}
