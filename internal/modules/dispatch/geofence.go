// README: Geofence admission — warehouse discs first, driver base disc as fallback.
package dispatch

import (
	"freteiro/internal/geo"
	"freteiro/internal/modules/delivery"
	"freteiro/internal/modules/fleet"
	"freteiro/internal/modules/profile"
)

// DefaultOperatingRadiusKm applies when neither the driver's personal radius
// nor a deployment-wide default was configured.
const DefaultOperatingRadiusKm = 50.0

// InRange decides whether the delivery's drop point falls inside the
// driver's serviceable area. Active warehouse discs are checked first; if
// none admits, the driver's base location disc is the fallback, sized by the
// driver's own radius or defaultRadiusKm when that is unset. A delivery
// without drop coordinates is admitted unconditionally — there is nothing to
// fence. Boundary distances are inclusive.
func InRange(d *delivery.Delivery, warehouses []*fleet.Warehouse, driver *profile.Driver, defaultRadiusKm float64) bool {
	if d.Dropoff == nil {
		return true
	}

	for _, w := range warehouses {
		if !w.IsActive {
			continue
		}
		dist := geo.HaversineKm(d.Dropoff.Lat, d.Dropoff.Lng, w.Latitude, w.Longitude)
		if dist <= w.OperatingRadiusKm {
			return true
		}
	}

	if driver == nil || driver.Base == nil {
		return false
	}
	radius := driver.OperatingRadiusKm
	if radius <= 0 {
		radius = defaultRadiusKm
	}
	if radius <= 0 {
		radius = DefaultOperatingRadiusKm
	}
	dist := geo.HaversineKm(d.Dropoff.Lat, d.Dropoff.Lng, driver.Base.Lat, driver.Base.Lng)
	return dist <= radius
}
