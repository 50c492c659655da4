package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/seifenwerk/orderdesk/internal/domain/catalog"
	"github.com/seifenwerk/orderdesk/internal/domain/inventory"
	domoutbox "github.com/seifenwerk/orderdesk/internal/domain/outbox"
	"github.com/seifenwerk/orderdesk/internal/pkg/metrics"
)

// CatalogCache is a read-through cache in front of the product catalog.
// Instead of a shared invalidation flag, it consumes the explicit
// StockReducedEvent published by the inventory ledger, so stale stock never
// surfaces after a successful reduction.
type CatalogCache struct {
	source  catalog.Catalog
	log     *zap.Logger
	mu      sync.RWMutex
	entries map[string]*catalog.Product
}

func NewCatalogCache(source catalog.Catalog, logger *zap.Logger) *CatalogCache {
	if logger == nil {
		logger = zap.L()
	}
	return &CatalogCache{
		source:  source,
		log:     logger.With(zap.String("component", "catalog_cache")),
		entries: make(map[string]*catalog.Product),
	}
}

// Subscribe registers the invalidation handler on the event bus.
func (c *CatalogCache) Subscribe(bus domoutbox.Subscriber) {
	bus.Subscribe(inventory.StockReducedEvent{}.EventName(), c.onStockReduced)
}

func (c *CatalogCache) Lookup(ctx context.Context, ref string) (*catalog.Product, error) {
	c.mu.RLock()
	cached, ok := c.entries[ref]
	c.mu.RUnlock()
	if ok {
		return cloneProduct(cached), nil
	}

	p, err := c.source.Lookup(ctx, ref)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[ref] = cloneProduct(p)
	c.mu.Unlock()
	return p, nil
}

// Invalidate drops the given references from the cache.
func (c *CatalogCache) Invalidate(refs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ref := range refs {
		delete(c.entries, ref)
	}
}

func (c *CatalogCache) onStockReduced(ctx context.Context, e domoutbox.Event) error {
	_ = ctx
	evt, ok := e.(inventory.StockReducedEvent)
	if !ok {
		return nil
	}
	refs := append([]string{evt.ProductRef}, evt.MaterialRefs...)
	c.Invalidate(refs...)
	metrics.CacheInvalidations.Inc()
	c.log.Debug("catalog_cache_invalidated",
		zap.String("product_ref", evt.ProductRef),
		zap.Int("refs", len(refs)),
	)
	return nil
}

func cloneProduct(p *catalog.Product) *catalog.Product {
	clone := *p
	clone.Composition = append([]catalog.Component(nil), p.Composition...)
	return &clone
}
