package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seifenwerk/orderdesk/internal/domain/catalog"
	dominv "github.com/seifenwerk/orderdesk/internal/domain/inventory"
	"github.com/seifenwerk/orderdesk/internal/domain/outbox"
	"github.com/seifenwerk/orderdesk/internal/pkg/logging"
	"github.com/seifenwerk/orderdesk/internal/pkg/metrics"
)

// ComponentResult reports the outcome of one stock-record deduction.
type ComponentResult struct {
	MaterialRef string
	Requested   decimal.Decimal
	Reduced     bool
	Err         error
}

// ReduceResult is the structured per-component outcome of a ledger
// reduction. The caller logs partial failures without aborting.
type ReduceResult struct {
	ProductRef string
	Components []ComponentResult
}

// AllReduced reports whether every component deduction succeeded.
func (r ReduceResult) AllReduced() bool {
	for _, c := range r.Components {
		if !c.Reduced {
			return false
		}
	}
	return len(r.Components) > 0
}

// AnyReduced reports whether at least one component deduction landed.
func (r ReduceResult) AnyReduced() bool {
	for _, c := range r.Components {
		if c.Reduced {
			return true
		}
	}
	return false
}

// Ledger keeps stock bookkeeping in sync with order conversions. Shortfalls
// are soft failures: order conversion is never blocked on stock bookkeeping.
type Ledger struct {
	catalog   catalog.Catalog
	stock     dominv.Repository
	publisher outbox.Publisher
}

func NewLedger(cat catalog.Catalog, stock dominv.Repository, publisher outbox.Publisher) *Ledger {
	return &Ledger{
		catalog:   cat,
		stock:     stock,
		publisher: publisher,
	}
}

// Reduce deducts quantity units of the referenced product. A simple product
// decrements its own stock record; a composite product fans out into
// proportional reductions of its raw-material components
// (quantity * percent / 100 each).
func (l *Ledger) Reduce(ctx context.Context, productRef string, quantity int) (ReduceResult, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "inventory_ledger"))

	result := ReduceResult{ProductRef: productRef}
	if quantity <= 0 {
		return result, dominv.ErrInvalidQuantity
	}

	product, err := l.catalog.Lookup(ctx, productRef)
	if err != nil {
		metrics.InventoryReductions.WithLabelValues("none").Inc()
		return result, fmt.Errorf("inventory: lookup %s: %w", productRef, err)
	}

	qty := decimal.NewFromInt(int64(quantity))
	hundred := decimal.NewFromInt(100)

	if product.IsComposite() {
		for _, comp := range product.Composition {
			amount := qty.Mul(comp.Percent).Div(hundred)
			result.Components = append(result.Components, l.deduct(ctx, comp.MaterialRef, amount))
		}
	} else {
		result.Components = append(result.Components, l.deduct(ctx, product.Ref, qty))
	}

	var reducedRefs []string
	for _, c := range result.Components {
		if c.Reduced {
			reducedRefs = append(reducedRefs, c.MaterialRef)
			continue
		}
		logger.Warn("inventory_reduce_component_failed",
			zap.String("product_ref", productRef),
			zap.String("material_ref", c.MaterialRef),
			zap.String("requested", c.Requested.String()),
			zap.Error(c.Err),
		)
	}

	switch {
	case result.AllReduced():
		metrics.InventoryReductions.WithLabelValues("full").Inc()
	case result.AnyReduced():
		metrics.InventoryReductions.WithLabelValues("partial").Inc()
	default:
		metrics.InventoryReductions.WithLabelValues("none").Inc()
	}

	if len(reducedRefs) > 0 && l.publisher != nil {
		if err := l.publisher.Publish(ctx, dominv.NewStockReducedEvent(productRef, reducedRefs)); err != nil {
			logger.Warn("stock_reduced_event_publish_failed",
				zap.String("product_ref", productRef),
				zap.Error(err),
			)
		}
	}

	logger.Info("inventory_reduce_done",
		zap.String("product_ref", productRef),
		zap.Int("quantity", quantity),
		zap.Int("components", len(result.Components)),
		zap.Bool("all_reduced", result.AllReduced()),
	)
	return result, nil
}

func (l *Ledger) deduct(ctx context.Context, materialRef string, amount decimal.Decimal) ComponentResult {
	res := ComponentResult{MaterialRef: materialRef, Requested: amount}

	item, err := l.stock.Get(ctx, materialRef)
	if err != nil {
		res.Err = err
		return res
	}
	if err := item.Deduct(amount); err != nil {
		res.Err = err
		return res
	}
	if err := l.stock.Save(ctx, item); err != nil {
		res.Err = fmt.Errorf("inventory: save %s: %w", materialRef, err)
		return res
	}
	res.Reduced = true
	return res
}
