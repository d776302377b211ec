// README: Order store backed by PostgreSQL; mirror writes are conditional, never blind.
package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"freteiro/internal/modules/delivery"
	"freteiro/internal/types"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, o *Order) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO orders (
			id, status, delivery_status, delivery_id,
			items, total_weight_kg,
			pickup_address, delivery_address,
			pickup_lat, pickup_lng, delivery_lat, delivery_lng,
			customer_name, vendor_name,
			required_vehicle_type, requires_crane,
			requires_delivery, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6,
			$7, $8,
			$9, $10, $11, $12,
			$13, $14,
			$15, $16,
			$17, $18
		)`,
		string(o.ID),
		o.Status,
		string(o.DeliveryStatus),
		idPtr(o.DeliveryID),
		o.Items,
		o.TotalWeightKg,
		o.PickupAddress,
		o.DeliveryAddress,
		latPtr(o.Pickup), lngPtr(o.Pickup),
		latPtr(o.Dropoff), lngPtr(o.Dropoff),
		o.CustomerName,
		o.VendorName,
		o.RequiredVehicleType,
		o.RequiresCrane,
		o.RequiresDelivery,
		o.CreatedAt,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, status, delivery_status, delivery_id,
		       items, total_weight_kg,
		       pickup_address, delivery_address,
		       pickup_lat, pickup_lng, delivery_lat, delivery_lng,
		       customer_name, vendor_name,
		       required_vehicle_type, requires_crane,
		       requires_delivery, created_at
		FROM orders
		WHERE id = $1`, string(id),
	)

	var o Order
	var deliveryID sql.NullString
	var pickupLat, pickupLng, dropLat, dropLng sql.NullFloat64
	var createdAt time.Time

	err := row.Scan(
		&o.ID, &o.Status, &o.DeliveryStatus, &deliveryID,
		&o.Items, &o.TotalWeightKg,
		&o.PickupAddress, &o.DeliveryAddress,
		&pickupLat, &pickupLng, &dropLat, &dropLng,
		&o.CustomerName, &o.VendorName,
		&o.RequiredVehicleType, &o.RequiresCrane,
		&o.RequiresDelivery, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if deliveryID.Valid {
		v := types.ID(deliveryID.String)
		o.DeliveryID = &v
	}
	o.Pickup = pointPtr(pickupLat, pickupLng)
	o.Dropoff = pointPtr(dropLat, dropLng)
	o.CreatedAt = createdAt
	return &o, nil
}

// LinkDelivery records the fan-out result on the order: the created
// delivery's id plus the initial mirror value. Conditional on the link being
// unset so a replayed fan-out cannot attach a second delivery.
func (s *PostgresStore) LinkDelivery(ctx context.Context, orderID, deliveryID types.ID, status delivery.Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET delivery_id = $1, delivery_status = $2
		WHERE id = $3 AND delivery_id IS NULL`,
		string(deliveryID), string(status), string(orderID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetDeliveryStatus mirrors the authoritative delivery status onto the
// order. The WHERE clause makes re-application of the same status a clean
// no-op, which is what makes at-least-once propagation safe.
func (s *PostgresStore) SetDeliveryStatus(ctx context.Context, orderID types.ID, status delivery.Status) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET delivery_status = $1
		WHERE id = $2 AND delivery_status <> $1`,
		string(status), string(orderID),
	)
	if err != nil {
		return err
	}
	// Zero rows means either "already applied" (fine) or "unknown order".
	// Distinguish so a propagation bug surfaces instead of vanishing.
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, string(orderID)).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
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
