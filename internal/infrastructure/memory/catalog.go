package memory

import (
	"context"
	"sync"

	domain "github.com/seifenwerk/orderdesk/internal/domain/catalog"
)

// Catalog is a static in-memory product catalog, seeded at startup. The real
// catalog is an external read-only collaborator; this stands in for it.
type Catalog struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewCatalog() *Catalog {
	return &Catalog{products: make(map[string]*domain.Product)}
}

func (c *Catalog) Seed(products ...domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range products {
		p := products[i]
		c.products[p.Ref] = &p
	}
}

func (c *Catalog) Lookup(ctx context.Context, ref string) (*domain.Product, error) {
	_ = ctx

	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *p
	clone.Composition = append([]domain.Component(nil), p.Composition...)
	return &clone, nil
}
