package inventory

import "time"

// StockReducedEvent is the cache-invalidation signal emitted after a
// successful deduction, so the read-through catalog cache never serves stale
// stock for the affected references.
type StockReducedEvent struct {
	ProductRef   string
	MaterialRefs []string
	OccurredAt   time.Time
}

func (StockReducedEvent) EventName() string { return "inventory.stock_reduced" }

func NewStockReducedEvent(productRef string, materialRefs []string) StockReducedEvent {
	return StockReducedEvent{
		ProductRef:   productRef,
		MaterialRefs: materialRefs,
		OccurredAt:   time.Now().UTC(),
	}
}
