package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"freteiro/internal/types"
)

// GeocodeService resolves street addresses to coordinates via the Google
// Geocoding API. Order intake uses it to fill missing pickup/drop
// coordinates so the geofence has something to work with.
type GeocodeService struct {
	client *maps.Client
}

// NewGeocodeService creates a new GeocodeService with the given API Key.
func NewGeocodeService(apiKey string) (*GeocodeService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GeocodeService{client: client}, nil
}

// Geocode returns the coordinates of the best match for address.
func (s *GeocodeService) Geocode(ctx context.Context, address string) (types.Point, error) {
	r := &maps.GeocodingRequest{
		Address:  address,
		Language: "pt-PT",
		Region:   "PT", // Bias results to Portugal
	}

	results, err := s.client.Geocode(ctx, r)
	if err != nil {
		return types.Point{}, fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return types.Point{}, fmt.Errorf("no match for address %q", address)
	}

	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// ReverseGeocode returns the formatted address nearest to the point.
func (s *GeocodeService) ReverseGeocode(ctx context.Context, p types.Point) (string, error) {
	r := &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
		Language: "pt-PT",
	}

	results, err := s.client.ReverseGeocode(ctx, r)
	if err != nil {
		return "", fmt.Errorf("reverse geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("no address at %.6f,%.6f", p.Lat, p.Lng)
	}
	return results[0].FormattedAddress, nil
}
