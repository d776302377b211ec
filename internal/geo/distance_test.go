package geo

import (
	"math"
	"testing"
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lng1      float64
		lat2      float64
		lng2      float64
		wantKm    float64
		tolerance float64
	}{
		{
			name: "same point",
			lat1: 38.7223, lng1: -9.1393,
			lat2: 38.7223, lng2: -9.1393,
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name: "Lisbon to Porto (~274km)",
			lat1: 38.7223, lng1: -9.1393,
			lat2: 41.1579, lng2: -8.6291,
			wantKm:    274,
			tolerance: 10,
		},
		{
			name: "Lisbon to Faro (~218km)",
			lat1: 38.7223, lng1: -9.1393,
			lat2: 37.0194, lng2: -7.9304,
			wantKm:    218,
			tolerance: 10,
		},
		{
			name: "New York to Los Angeles (~3944km)",
			lat1: 40.7128, lng1: -74.0060,
			lat2: 34.0522, lng2: -118.2437,
			wantKm:    3944,
			tolerance: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("HaversineKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestHaversineKm_Symmetry(t *testing.T) {
	d1 := HaversineKm(38.7, -9.1, 41.1, -8.6)
	d2 := HaversineKm(41.1, -8.6, 38.7, -9.1)
	if math.Abs(d1-d2) > 0.0001 {
		t.Errorf("haversine is not symmetric: %f vs %f", d1, d2)
	}
}
