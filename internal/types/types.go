// README: Common identifier and coordinate value types used across modules.
package types

// ID is an opaque document identifier.
type ID string

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}
