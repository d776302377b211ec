// README: Vehicle/delivery compatibility rules.
package dispatch

import (
	"freteiro/internal/modules/delivery"
	"freteiro/internal/modules/fleet"
)

// VehicleCompatible reports whether a single vehicle can serve a delivery.
// Each requirement the delivery leaves unset passes vacuously; every
// requirement it does set must hold.
func VehicleCompatible(v *fleet.Vehicle, d *delivery.Delivery) bool {
	if !v.IsActive {
		return false
	}
	if d.RequiredVehicleType != "" && d.RequiredVehicleType != v.VehicleType {
		return false
	}
	if d.RequiresCrane && !v.HasCrane {
		return false
	}
	if d.TotalWeightKg > 0 && v.MaxWeightKg < d.TotalWeightKg {
		return false
	}
	return true
}

// FirstCompatibleVehicle scans the fleet in order and returns the first
// vehicle that can serve the delivery, or nil. A driver matches a delivery
// if any of their active vehicles does.
func FirstCompatibleVehicle(vehicles []*fleet.Vehicle, d *delivery.Delivery) *fleet.Vehicle {
	for _, v := range vehicles {
		if VehicleCompatible(v, d) {
			return v
		}
	}
	return nil
}
