// README: Order intake; geocodes missing coordinates and fans out to the delivery side.
package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"freteiro/internal/modules/delivery"
	"freteiro/internal/types"
)

var (
	ErrNotFound   = errors.New("order not found")
	ErrBadRequest = errors.New("invalid order request")
)

// Store is the persistence surface the service needs. *PostgresStore
// satisfies it; tests swap in a memory map.
type Store interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id types.ID) (*Order, error)
	LinkDelivery(ctx context.Context, orderID, deliveryID types.ID, status delivery.Status) (bool, error)
	SetDeliveryStatus(ctx context.Context, orderID types.ID, status delivery.Status) error
}

// Geocoder resolves street addresses to coordinates and back. Best-effort:
// a failure leaves the field unset, it never blocks creation.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
	ReverseGeocode(ctx context.Context, p types.Point) (string, error)
}

// FanOut is notified once per created order that needs a delivery. The sync
// coordinator implements it.
type FanOut interface {
	OnOrderCreated(ctx context.Context, o *Order) error
}

type Service struct {
	store    Store
	geocoder Geocoder
	fanOut   FanOut
}

func NewService(store Store, geocoder Geocoder, fanOut FanOut) *Service {
	return &Service{store: store, geocoder: geocoder, fanOut: fanOut}
}

type CreateCommand struct {
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
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.DeliveryAddress == "" {
		return "", ErrBadRequest
	}

	o := &Order{
		ID:                  types.ID(newID()),
		Status:              "created",
		DeliveryStatus:      DeliveryStatusPending,
		Items:               cmd.Items,
		TotalWeightKg:       cmd.TotalWeightKg,
		PickupAddress:       cmd.PickupAddress,
		DeliveryAddress:     cmd.DeliveryAddress,
		Pickup:              cmd.Pickup,
		Dropoff:             cmd.Dropoff,
		CustomerName:        cmd.CustomerName,
		VendorName:          cmd.VendorName,
		RequiredVehicleType: cmd.RequiredVehicleType,
		RequiresCrane:       cmd.RequiresCrane,
		RequiresDelivery:    cmd.RequiresDelivery,
		CreatedAt:           time.Now().UTC(),
	}

	if o.Pickup == nil && o.PickupAddress != "" {
		o.Pickup = s.geocode(ctx, o.PickupAddress)
	}
	if o.PickupAddress == "" && o.Pickup != nil {
		// Vendors dropping a pin on the map send coordinates only; resolve
		// a human-readable pickup address for the driver.
		o.PickupAddress = s.reverseGeocode(ctx, *o.Pickup)
	}
	if o.Dropoff == nil {
		o.Dropoff = s.geocode(ctx, o.DeliveryAddress)
	}

	if err := s.store.Create(ctx, o); err != nil {
		return "", err
	}

	if o.RequiresDelivery && s.fanOut != nil {
		if err := s.fanOut.OnOrderCreated(ctx, o); err != nil {
			// The order row is already committed; the read-repair sweep
			// picks up orders left without a delivery.
			log.Printf("order: delivery fan-out failed for order %s: %v", o.ID, err)
		}
	}
	return o.ID, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) geocode(ctx context.Context, address string) *types.Point {
	if s.geocoder == nil {
		return nil
	}
	p, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		log.Printf("order: geocoding %q failed: %v", address, err)
		return nil
	}
	return &p
}

func (s *Service) reverseGeocode(ctx context.Context, p types.Point) string {
	if s.geocoder == nil {
		return ""
	}
	addr, err := s.geocoder.ReverseGeocode(ctx, p)
	if err != nil {
		log.Printf("order: reverse geocoding %.5f,%.5f failed: %v", p.Lat, p.Lng, err)
		return ""
	}
	return addr
}

func newID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(b)
}
