// README: Read-repair sweep — re-applies lost mirror writes and dead fan-outs.
package sync

import (
	"context"
	"log"

	"freteiro/internal/modules/order"
	"freteiro/internal/types"
)

type DivergenceSource interface {
	ListDiverged(ctx context.Context, limit int) ([]Divergence, error)
	ListUnlinked(ctx context.Context, limit int) ([]types.ID, error)
}

type OrderGetter interface {
	Get(ctx context.Context, id types.ID) (*order.Order, error)
}

// Repairer periodically converges orders back onto their deliveries. Every
// repair action is the same idempotent write the live path uses, so the
// sweep and the live path can never fight.
type Repairer struct {
	source      DivergenceSource
	orders      OrderGetter
	coordinator *Coordinator
	batch       int
}

func NewRepairer(source DivergenceSource, orders OrderGetter, coordinator *Coordinator, batch int) *Repairer {
	if batch <= 0 {
		batch = 100
	}
	return &Repairer{source: source, orders: orders, coordinator: coordinator, batch: batch}
}

// Run performs one sweep. Per-record failures are logged and skipped; the
// next sweep retries them.
func (r *Repairer) Run(ctx context.Context) error {
	diverged, err := r.source.ListDiverged(ctx, r.batch)
	if err != nil {
		return err
	}
	for _, div := range diverged {
		if err := r.coordinator.DeliveryStatusChanged(ctx, div.OrderID, div.DeliveryID, div.DeliveryStatus); err != nil {
			log.Printf("sync: repair of order %s failed: %v", div.OrderID, err)
		}
	}

	unlinked, err := r.source.ListUnlinked(ctx, r.batch)
	if err != nil {
		return err
	}
	for _, orderID := range unlinked {
		o, err := r.orders.Get(ctx, orderID)
		if err != nil {
			log.Printf("sync: repair fetch of order %s failed: %v", orderID, err)
			continue
		}
		if err := r.coordinator.OnOrderCreated(ctx, o); err != nil {
			log.Printf("sync: repair fan-out for order %s failed: %v", orderID, err)
		}
	}

	if n := len(diverged) + len(unlinked); n > 0 {
		log.Printf("sync: repaired %d diverged and %d unlinked orders", len(diverged), len(unlinked))
	}
	return nil
}
