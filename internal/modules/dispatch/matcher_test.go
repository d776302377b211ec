package dispatch

import (
	"context"
	"errors"
	"testing"

	"freteiro/internal/modules/delivery"
	"freteiro/internal/modules/fleet"
	"freteiro/internal/modules/profile"
	"freteiro/internal/types"
)

type stubDeliveries struct {
	list []*delivery.Delivery
}

func (s *stubDeliveries) ListByStatus(_ context.Context, _ delivery.Status, _ int) ([]*delivery.Delivery, error) {
	return s.list, nil
}

type stubFleet struct {
	vehicles   []*fleet.Vehicle
	warehouses []*fleet.Warehouse
}

func (s *stubFleet) VehicleByID(_ context.Context, id types.ID) (*fleet.Vehicle, error) {
	for _, v := range s.vehicles {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, fleet.ErrNotFound
}

func (s *stubFleet) ActiveVehiclesByOwner(_ context.Context, owner types.ID) ([]*fleet.Vehicle, error) {
	var out []*fleet.Vehicle
	for _, v := range s.vehicles {
		if v.OwnerID == owner && v.IsActive {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *stubFleet) ActiveWarehousesByOwner(_ context.Context, owner types.ID) ([]*fleet.Warehouse, error) {
	var out []*fleet.Warehouse
	for _, w := range s.warehouses {
		if w.OwnerID == owner && w.IsActive {
			out = append(out, w)
		}
	}
	return out, nil
}

type stubProfiles struct {
	driver *profile.Driver
}

func (s *stubProfiles) Get(_ context.Context, _ types.ID) (*profile.Driver, error) {
	if s.driver == nil {
		return nil, profile.ErrNotFound
	}
	return s.driver, nil
}

func TestVisibleDeliveries_FiltersByCompatibilityAndGeofence(t *testing.T) {
	driverID := types.ID("drv-1")
	deliveries := &stubDeliveries{list: []*delivery.Delivery{
		{ID: "d-near", Dropoff: &types.Point{Lat: 38.73, Lng: -9.14}},
		{ID: "d-heavy", Dropoff: &types.Point{Lat: 38.73, Lng: -9.14}, TotalWeightKg: 20000},
		{ID: "d-far", Dropoff: &porto},
		{ID: "d-nowhere"},
	}}
	fleetStore := &stubFleet{
		vehicles: []*fleet.Vehicle{
			{ID: "v-1", OwnerID: driverID, VehicleType: fleet.TypeTruckMedium, IsActive: true, MaxWeightKg: 5000},
		},
		warehouses: []*fleet.Warehouse{
			{OwnerID: driverID, Latitude: lisbon.Lat, Longitude: lisbon.Lng, OperatingRadiusKm: 30, IsActive: true},
		},
	}

	svc := NewService(deliveries, fleetStore, &stubProfiles{}, 20, 0)
	got, err := svc.VisibleDeliveries(context.Background(), driverID)
	if err != nil {
		t.Fatalf("VisibleDeliveries: %v", err)
	}

	want := []types.ID{"d-near", "d-nowhere"}
	if len(got) != len(want) {
		t.Fatalf("got %d deliveries, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: got %s, want %s (candidate order must be preserved)", i, got[i].ID, id)
		}
	}
}

func TestVisibleDeliveries_NoActiveVehiclesSeesNothing(t *testing.T) {
	deliveries := &stubDeliveries{list: []*delivery.Delivery{{ID: "d-1"}}}
	svc := NewService(deliveries, &stubFleet{}, &stubProfiles{}, 20, 0)

	got, err := svc.VisibleDeliveries(context.Background(), "drv-1")
	if err != nil {
		t.Fatalf("VisibleDeliveries: %v", err)
	}
	if len(got) != 0 {
		t.Fatal("a driver with no active vehicle must see an empty queue")
	}
}

func TestVisibleDeliveries_UnavailableDriverSeesNothing(t *testing.T) {
	driverID := types.ID("drv-1")
	deliveries := &stubDeliveries{list: []*delivery.Delivery{{ID: "d-1"}}}
	fleetStore := &stubFleet{
		vehicles: []*fleet.Vehicle{{ID: "v-1", OwnerID: driverID, VehicleType: fleet.TypeVan, IsActive: true, MaxWeightKg: 800}},
	}
	profiles := &stubProfiles{driver: &profile.Driver{ID: driverID, IsAvailable: false}}
	svc := NewService(deliveries, fleetStore, profiles, 20, 0)

	got, err := svc.VisibleDeliveries(context.Background(), driverID)
	if err != nil {
		t.Fatalf("VisibleDeliveries: %v", err)
	}
	if len(got) != 0 {
		t.Fatal("an unavailable driver must see an empty queue")
	}
}

func TestVisibleDeliveries_MissingProfileUsesWarehousesOnly(t *testing.T) {
	driverID := types.ID("drv-1")
	deliveries := &stubDeliveries{list: []*delivery.Delivery{{ID: "d-1", Dropoff: &lisbon}}}
	fleetStore := &stubFleet{
		vehicles: []*fleet.Vehicle{{ID: "v-1", OwnerID: driverID, VehicleType: fleet.TypeVan, IsActive: true, MaxWeightKg: 800}},
	}
	svc := NewService(deliveries, fleetStore, &stubProfiles{}, 20, 0)

	got, err := svc.VisibleDeliveries(context.Background(), driverID)
	if err != nil {
		t.Fatalf("missing profile must not be an error: %v", err)
	}
	if len(got) != 0 {
		t.Fatal("no warehouse and no base location leaves no serviceable area")
	}
}

func TestCompatibleVehicle_GateOutcomes(t *testing.T) {
	driverID := types.ID("drv-1")
	fleetStore := &stubFleet{vehicles: []*fleet.Vehicle{
		{ID: "v-mine", OwnerID: driverID, VehicleType: fleet.TypeVan, IsActive: true, MaxWeightKg: 800},
		{ID: "v-theirs", OwnerID: "drv-2", VehicleType: fleet.TypeVan, IsActive: true, MaxWeightKg: 800},
		{ID: "v-parked", OwnerID: driverID, VehicleType: fleet.TypeVan, IsActive: false, MaxWeightKg: 800},
	}}
	svc := NewService(&stubDeliveries{}, fleetStore, &stubProfiles{}, 20, 0)
	d := &delivery.Delivery{}

	if err := svc.CompatibleVehicle(context.Background(), driverID, "v-mine", d); err != nil {
		t.Errorf("own compatible vehicle must pass: %v", err)
	}
	for _, vid := range []types.ID{"v-theirs", "v-parked", "v-ghost"} {
		err := svc.CompatibleVehicle(context.Background(), driverID, vid, d)
		if !errors.Is(err, delivery.ErrNoCompatibleVehicle) {
			t.Errorf("vehicle %s: expected ErrNoCompatibleVehicle, got %v", vid, err)
		}
	}
}
