// README: Delivery store backed by PostgreSQL; all status writes are compare-and-swap.
package delivery

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"freteiro/internal/types"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const deliveryColumns = `
	id, order_id, status, status_version, driver_id, vehicle_id,
	pickup_address, delivery_address,
	pickup_lat, pickup_lng, delivery_lat, delivery_lng,
	customer_name, vendor_name,
	required_vehicle_type, requires_crane, total_weight_kg, materials,
	pickup_time, delivery_time,
	driver_location_lat, driver_location_lng,
	created_at`

func (s *PostgresStore) Create(ctx context.Context, d *Delivery) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO deliveries (
			id, order_id, status, status_version, driver_id, vehicle_id,
			pickup_address, delivery_address,
			pickup_lat, pickup_lng, delivery_lat, delivery_lng,
			customer_name, vendor_name,
			required_vehicle_type, requires_crane, total_weight_kg, materials,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8,
			$9, $10, $11, $12,
			$13, $14,
			$15, $16, $17, $18,
			$19
		)`,
		string(d.ID),
		string(d.OrderID),
		string(d.Status),
		d.StatusVersion,
		idPtr(d.DriverID),
		idPtr(d.VehicleID),
		d.PickupAddress,
		d.DeliveryAddress,
		latPtr(d.Pickup), lngPtr(d.Pickup),
		latPtr(d.Dropoff), lngPtr(d.Dropoff),
		d.CustomerName,
		d.VendorName,
		d.RequiredVehicleType,
		d.RequiresCrane,
		d.TotalWeightKg,
		d.Materials,
		d.CreatedAt,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Delivery, error) {
	row := s.db.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, string(id))
	return scanDelivery(row)
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status Status, limit int) ([]*Delivery, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+deliveryColumns+`
		FROM deliveries
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		string(status), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ByOrder(ctx context.Context, orderID types.ID) (*Delivery, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+deliveryColumns+`
		FROM deliveries
		WHERE order_id = $1 AND status <> 'cancelled'
		ORDER BY created_at DESC
		LIMIT 1`,
		string(orderID),
	)
	return scanDelivery(row)
}

func (s *PostgresStore) ActiveByDriver(ctx context.Context, driverID types.ID) (*Delivery, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+deliveryColumns+`
		FROM deliveries
		WHERE driver_id = $1
		  AND status IN ('accepted','heading_pickup','arrived_pickup','picked_up','heading_delivery','arrived_delivery')
		ORDER BY created_at DESC
		LIMIT 1`,
		string(driverID),
	)
	return scanDelivery(row)
}

func (s *PostgresStore) TerminalByDriver(ctx context.Context, driverID types.ID, limit int) ([]*Delivery, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+deliveryColumns+`
		FROM deliveries
		WHERE driver_id = $1 AND status IN ('delivered','cancelled')
		ORDER BY created_at DESC
		LIMIT $2`,
		string(driverID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateStatus is the single mutating write of the state machine. The WHERE
// clause makes it a compare-and-swap: concurrent actors race on (status,
// status_version) and only one write per version can land. Cancellation
// clears the assignment; pickup_time/delivery_time are stamped only while
// NULL, so a replayed transition keeps the original timestamp.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, assign *Assignment) (bool, error) {
	var driverID, vehicleID *string
	if assign != nil {
		d := string(assign.DriverID)
		v := string(assign.VehicleID)
		driverID, vehicleID = &d, &v
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE deliveries
		SET status = $1,
		    status_version = status_version + 1,
		    driver_id  = CASE WHEN $1 = 'cancelled' THEN NULL ELSE COALESCE($2, driver_id) END,
		    vehicle_id = CASE WHEN $1 = 'cancelled' THEN NULL ELSE COALESCE($3, vehicle_id) END,
		    pickup_time   = CASE WHEN $1 = 'picked_up' THEN COALESCE(pickup_time, NOW()) ELSE pickup_time END,
		    delivery_time = CASE WHEN $1 = 'delivered' THEN COALESCE(delivery_time, NOW()) ELSE delivery_time END
		WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(to),
		driverID,
		vehicleID,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetDriverLocation writes the driver's latest position onto their active
// delivery, if any. Conditional on the active statuses so a position sample
// never mutates a terminal record.
func (s *PostgresStore) SetDriverLocation(ctx context.Context, driverID types.ID, pos types.Point) error {
	_, err := s.db.Exec(ctx, `
		UPDATE deliveries
		SET driver_location_lat = $1, driver_location_lng = $2
		WHERE driver_id = $3
		  AND status IN ('accepted','heading_pickup','arrived_pickup','picked_up','heading_delivery','arrived_delivery')`,
		pos.Lat, pos.Lng, string(driverID),
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDelivery(row rowScanner) (*Delivery, error) {
	var d Delivery
	var driverID, vehicleID sql.NullString
	var pickupLat, pickupLng, dropLat, dropLng sql.NullFloat64
	var driverLat, driverLng sql.NullFloat64
	var pickupTime, deliveryTime sql.NullTime

	err := row.Scan(
		&d.ID, &d.OrderID, &d.Status, &d.StatusVersion, &driverID, &vehicleID,
		&d.PickupAddress, &d.DeliveryAddress,
		&pickupLat, &pickupLng, &dropLat, &dropLng,
		&d.CustomerName, &d.VendorName,
		&d.RequiredVehicleType, &d.RequiresCrane, &d.TotalWeightKg, &d.Materials,
		&pickupTime, &deliveryTime,
		&driverLat, &driverLng,
		&d.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if driverID.Valid {
		v := types.ID(driverID.String)
		d.DriverID = &v
	}
	if vehicleID.Valid {
		v := types.ID(vehicleID.String)
		d.VehicleID = &v
	}
	d.Pickup = pointPtr(pickupLat, pickupLng)
	d.Dropoff = pointPtr(dropLat, dropLng)
	d.DriverLocation = pointPtr(driverLat, driverLng)
	d.PickupTime = timePtr(pickupTime)
	d.DeliveryTime = timePtr(deliveryTime)
	return &d, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func latPtr(p *types.Point) *float64 {
	if p == nil {
		return nil
	}
	return &p.Lat
}

func lngPtr(p *types.Point) *float64 {
	if p == nil {
		return nil
	}
	return &p.Lng
}

func pointPtr(lat, lng sql.NullFloat64) *types.Point {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &types.Point{Lat: lat.Float64, Lng: lng.Float64}
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
