// README: Read-side store for fleet records; matching only ever reads these tables.
package fleet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"freteiro/internal/types"
)

var ErrNotFound = errors.New("fleet record not found")

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) VehicleByID(ctx context.Context, id types.ID) (*Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, owner_id, vehicle_type, is_active, has_crane, max_weight_kg
		FROM vehicles
		WHERE id = $1`, string(id),
	)
	var v Vehicle
	err := row.Scan(&v.ID, &v.OwnerID, &v.VehicleType, &v.IsActive, &v.HasCrane, &v.MaxWeightKg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *PostgresStore) ActiveVehiclesByOwner(ctx context.Context, ownerID types.ID) ([]*Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, vehicle_type, is_active, has_crane, max_weight_kg
		FROM vehicles
		WHERE owner_id = $1 AND is_active`, string(ownerID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.VehicleType, &v.IsActive, &v.HasCrane, &v.MaxWeightKg); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ActiveWarehousesByOwner(ctx context.Context, ownerID types.ID) ([]*Warehouse, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, latitude, longitude, operating_radius_km, is_active
		FROM warehouses
		WHERE owner_id = $1 AND is_active`, string(ownerID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.OwnerID, &w.Latitude, &w.Longitude, &w.OperatingRadiusKm, &w.IsActive); err != nil {
			return nil, err
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}
