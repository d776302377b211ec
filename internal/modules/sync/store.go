// README: Read-repair queries — finds order/delivery pairs that drifted apart.
package sync

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"freteiro/internal/modules/delivery"
	"freteiro/internal/types"
)

// Divergence is an order whose mirror no longer matches its delivery's
// authoritative status.
type Divergence struct {
	OrderID        types.ID
	DeliveryID     types.ID
	DeliveryStatus delivery.Status
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// ListDiverged returns linked pairs where the order's delivery_status lags
// the delivery's status. The delivery side is authoritative, so repair is
// always a one-way re-apply.
func (s *PostgresStore) ListDiverged(ctx context.Context, limit int) ([]Divergence, error) {
	rows, err := s.db.Query(ctx, `
		SELECT o.id, d.id, d.status
		FROM orders o
		JOIN deliveries d ON d.id = o.delivery_id
		WHERE o.delivery_status <> d.status
		ORDER BY d.created_at
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Divergence
	for rows.Next() {
		var div Divergence
		if err := rows.Scan(&div.OrderID, &div.DeliveryID, &div.DeliveryStatus); err != nil {
			return nil, err
		}
		out = append(out, div)
	}
	return out, rows.Err()
}

// ListUnlinked returns orders that require a delivery but never got one,
// typically because the fan-out died between the two writes.
func (s *PostgresStore) ListUnlinked(ctx context.Context, limit int) ([]types.ID, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id
		FROM orders
		WHERE requires_delivery AND delivery_id IS NULL
		ORDER BY created_at
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.ID
	for rows.Next() {
		var id types.ID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
