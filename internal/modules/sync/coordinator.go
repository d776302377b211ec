// README: Sync coordinator — the saga glue between orders and deliveries.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"

	"freteiro/internal/modules/delivery"
	"freteiro/internal/modules/order"
	"freteiro/internal/types"
)

// OrderStore is the slice of the order store the coordinator writes through.
// delivery_status is the only order field this package ever touches.
type OrderStore interface {
	LinkDelivery(ctx context.Context, orderID, deliveryID types.ID, status delivery.Status) (bool, error)
	SetDeliveryStatus(ctx context.Context, orderID types.ID, status delivery.Status) error
}

// DeliveryAPI is the slice of the delivery service the fan-out needs.
type DeliveryAPI interface {
	Create(ctx context.Context, cmd delivery.CreateCommand) (types.ID, error)
	Cancel(ctx context.Context, cmd delivery.CancelCommand) error
	ByOrder(ctx context.Context, orderID types.ID) (*delivery.Delivery, error)
}

// Notifier pushes a "new delivery available" message to driver devices.
// Strictly best-effort.
type Notifier interface {
	NotifyNewDelivery(ctx context.Context, deliveryID types.ID, pickupAddress string) error
}

type Coordinator struct {
	orders     OrderStore
	deliveries DeliveryAPI
	notifier   Notifier
}

func NewCoordinator(orders OrderStore, deliveries DeliveryAPI, notifier Notifier) *Coordinator {
	return &Coordinator{orders: orders, deliveries: deliveries, notifier: notifier}
}

// OnOrderCreated fans an order out into a fresh available delivery and links
// it back onto the order. Safe to re-invoke: an order that already carries a
// delivery link is left alone, an unlinked order whose delivery already
// exists gets that delivery relinked, and a duplicate delivery created by a
// lost race is cancelled on the spot.
func (c *Coordinator) OnOrderCreated(ctx context.Context, o *order.Order) error {
	if !o.RequiresDelivery {
		return nil
	}
	if o.DeliveryID != nil {
		return nil
	}

	// An earlier fan-out may have created the delivery and then lost the
	// link write. Relink that record instead of minting a sibling.
	existing, err := c.deliveries.ByOrder(ctx, o.ID)
	if err == nil {
		linked, lerr := c.orders.LinkDelivery(ctx, o.ID, existing.ID, existing.Status)
		if lerr != nil {
			log.Printf("sync: relinking delivery %s to order %s failed: %v", existing.ID, o.ID, lerr)
		} else if !linked {
			// A concurrent relink of the same record got there first.
			log.Printf("sync: order %s already linked, leaving delivery %s alone", o.ID, existing.ID)
		}
		return nil
	}
	if !errors.Is(err, delivery.ErrNotFound) {
		return fmt.Errorf("looking up delivery for order %s: %w", o.ID, err)
	}

	deliveryID, err := c.deliveries.Create(ctx, delivery.CreateCommand{
		OrderID:             o.ID,
		PickupAddress:       o.PickupAddress,
		DeliveryAddress:     o.DeliveryAddress,
		Pickup:              o.Pickup,
		Dropoff:             o.Dropoff,
		CustomerName:        o.CustomerName,
		VendorName:          o.VendorName,
		RequiredVehicleType: o.RequiredVehicleType,
		RequiresCrane:       o.RequiresCrane,
		TotalWeightKg:       o.TotalWeightKg,
		Materials:           o.Items,
	})
	if err != nil {
		return fmt.Errorf("creating delivery for order %s: %w", o.ID, err)
	}

	linked, err := c.orders.LinkDelivery(ctx, o.ID, deliveryID, delivery.StatusAvailable)
	if err != nil {
		// Delivery row exists but the order doesn't know about it yet; the
		// read-repair sweep finds it through ByOrder and relinks it.
		log.Printf("sync: linking delivery %s to order %s failed: %v", deliveryID, o.ID, err)
		return nil
	}
	if !linked {
		// A concurrent fan-out won the link. Retire the duplicate.
		if cerr := c.deliveries.Cancel(ctx, delivery.CancelCommand{DeliveryID: deliveryID}); cerr != nil {
			log.Printf("sync: cancelling duplicate delivery %s failed: %v", deliveryID, cerr)
		}
		return nil
	}

	c.notify(ctx, deliveryID, o.PickupAddress)
	return nil
}

// DeliveryStatusChanged mirrors a committed delivery status onto the owning
// order. At-least-once and idempotent: the mirror write no-ops when the
// order already carries the status, so retrying after a failure is always
// safe.
func (c *Coordinator) DeliveryStatusChanged(ctx context.Context, orderID, deliveryID types.ID, status delivery.Status) error {
	if err := c.orders.SetDeliveryStatus(ctx, orderID, status); err != nil {
		return fmt.Errorf("mirroring delivery %s status %s onto order %s: %w", deliveryID, status, orderID, err)
	}
	return nil
}

func (c *Coordinator) notify(ctx context.Context, deliveryID types.ID, pickupAddress string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.NotifyNewDelivery(ctx, deliveryID, pickupAddress); err != nil {
		log.Printf("sync: notify for delivery %s failed: %v", deliveryID, err)
	}
}
