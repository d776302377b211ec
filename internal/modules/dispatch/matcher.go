// README: Dispatch matcher — builds a driver's visible queue and gates acceptance.
package dispatch

import (
	"context"
	"errors"

	"freteiro/internal/modules/delivery"
	"freteiro/internal/modules/fleet"
	"freteiro/internal/modules/profile"
	"freteiro/internal/types"
)

type DeliveryLister interface {
	ListByStatus(ctx context.Context, status delivery.Status, limit int) ([]*delivery.Delivery, error)
}

type FleetStore interface {
	VehicleByID(ctx context.Context, id types.ID) (*fleet.Vehicle, error)
	ActiveVehiclesByOwner(ctx context.Context, ownerID types.ID) ([]*fleet.Vehicle, error)
	ActiveWarehousesByOwner(ctx context.Context, ownerID types.ID) ([]*fleet.Warehouse, error)
}

type ProfileStore interface {
	Get(ctx context.Context, driverID types.ID) (*profile.Driver, error)
}

type Service struct {
	deliveries      DeliveryLister
	fleet           FleetStore
	profiles        ProfileStore
	limit           int
	defaultRadiusKm float64
}

func NewService(deliveries DeliveryLister, fleetStore FleetStore, profiles ProfileStore, limit int, defaultRadiusKm float64) *Service {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = DefaultOperatingRadiusKm
	}
	return &Service{deliveries: deliveries, fleet: fleetStore, profiles: profiles, limit: limit, defaultRadiusKm: defaultRadiusKm}
}

// VisibleDeliveries returns the available deliveries this driver may accept,
// in the candidate list's own order. Visibility is advisory: two drivers can
// see the same delivery, and only the accept write decides who gets it.
func (s *Service) VisibleDeliveries(ctx context.Context, driverID types.ID) ([]*delivery.Delivery, error) {
	vehicles, err := s.fleet.ActiveVehiclesByOwner(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if len(vehicles) == 0 {
		return nil, nil
	}

	warehouses, err := s.fleet.ActiveWarehousesByOwner(ctx, driverID)
	if err != nil {
		return nil, err
	}

	driver, err := s.profiles.Get(ctx, driverID)
	if err != nil && !errors.Is(err, profile.ErrNotFound) {
		return nil, err
	}
	if driver != nil && !driver.IsAvailable {
		return nil, nil
	}

	candidates, err := s.deliveries.ListByStatus(ctx, delivery.StatusAvailable, s.limit)
	if err != nil {
		return nil, err
	}

	var out []*delivery.Delivery
	for _, d := range candidates {
		if FirstCompatibleVehicle(vehicles, d) == nil {
			continue
		}
		if !InRange(d, warehouses, driver, s.defaultRadiusKm) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// CompatibleVehicle re-validates the chosen vehicle at acceptance time. The
// visible queue may be stale by the time the driver taps accept, so the
// rules run again against the live records.
func (s *Service) CompatibleVehicle(ctx context.Context, driverID, vehicleID types.ID, d *delivery.Delivery) error {
	v, err := s.fleet.VehicleByID(ctx, vehicleID)
	if errors.Is(err, fleet.ErrNotFound) {
		return delivery.ErrNoCompatibleVehicle
	}
	if err != nil {
		return err
	}
	if v.OwnerID != driverID || !VehicleCompatible(v, d) {
		return delivery.ErrNoCompatibleVehicle
	}
	return nil
}
