package memory

import (
	"context"
	"sync"

	domain "github.com/seifenwerk/orderdesk/internal/domain/inventory"
)

type InventoryRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Item
}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{items: make(map[string]*domain.Item)}
}

func (r *InventoryRepository) Get(ctx context.Context, materialRef string) (*domain.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[materialRef]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneItem(item), nil
}

func (r *InventoryRepository) Save(ctx context.Context, item *domain.Item) error {
	_ = ctx
	if item == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.MaterialRef] = cloneItem(item)
	return nil
}

func cloneItem(item *domain.Item) *domain.Item {
	clone := *item
	return &clone
}
