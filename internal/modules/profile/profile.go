// README: Driver profile — availability flag, last known position and personal geofence.
package profile

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"freteiro/internal/types"
)

var ErrNotFound = errors.New("driver profile not found")

type Driver struct {
	ID types.ID

	// Current is the last published position; nil until the first publish.
	Current *types.Point

	// Base plus OperatingRadiusKm describe the driver's personal serviceable
	// disc, used when no warehouse admits a delivery. OperatingRadiusKm of
	// zero means "not configured".
	Base              *types.Point
	OperatingRadiusKm float64

	IsAvailable bool
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, driverID types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, current_lat, current_lng,
		       base_location_lat, base_location_lng, operating_radius_km,
		       is_available
		FROM driver_profiles
		WHERE id = $1`, string(driverID),
	)

	var d Driver
	var curLat, curLng, baseLat, baseLng sql.NullFloat64
	var radius sql.NullFloat64
	err := row.Scan(&d.ID, &curLat, &curLng, &baseLat, &baseLng, &radius, &d.IsAvailable)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if curLat.Valid && curLng.Valid {
		d.Current = &types.Point{Lat: curLat.Float64, Lng: curLng.Float64}
	}
	if baseLat.Valid && baseLng.Valid {
		d.Base = &types.Point{Lat: baseLat.Float64, Lng: baseLng.Float64}
	}
	if radius.Valid {
		d.OperatingRadiusKm = radius.Float64
	}
	return &d, nil
}

func (s *PostgresStore) SetPosition(ctx context.Context, driverID types.ID, pos types.Point) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE driver_profiles
		SET current_lat = $1, current_lng = $2, position_updated_at = NOW()
		WHERE id = $3`,
		pos.Lat, pos.Lng, string(driverID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetAvailability(ctx context.Context, driverID types.ID, available bool) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE driver_profiles
		SET is_available = $1
		WHERE id = $2`,
		available, string(driverID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
