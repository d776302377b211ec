// README: Transporter fleet records — vehicles and warehouses owned by a driver.
package fleet

import "freteiro/internal/types"

// Vehicle types offered by transporters. A delivery's required type, when
// set, must match one of these exactly.
const (
	TypeTruckSmall  = "truck_small"
	TypeTruckMedium = "truck_medium"
	TypeTruckLarge  = "truck_large"
	TypeVan         = "van"
	TypePickup      = "pickup"
	TypeCraneTruck  = "crane_truck"
	TypeTipperTruck = "tipper_truck"
	TypeFlatbed     = "flatbed"
)

var vehicleTypes = map[string]bool{
	TypeTruckSmall:  true,
	TypeTruckMedium: true,
	TypeTruckLarge:  true,
	TypeVan:         true,
	TypePickup:      true,
	TypeCraneTruck:  true,
	TypeTipperTruck: true,
	TypeFlatbed:     true,
}

func ValidVehicleType(t string) bool { return vehicleTypes[t] }

type Vehicle struct {
	ID          types.ID
	OwnerID     types.ID
	VehicleType string
	IsActive    bool
	HasCrane    bool
	// MaxWeightKg is the rated payload in kilograms.
	MaxWeightKg float64
}

// Warehouse is a fixed dispatch point. Its coordinates plus
// OperatingRadiusKm define a serviceable disc; only active warehouses count
// for admission.
type Warehouse struct {
	ID                types.ID
	OwnerID           types.ID
	Latitude          float64
	Longitude         float64
	OperatingRadiusKm float64
	IsActive          bool
}
