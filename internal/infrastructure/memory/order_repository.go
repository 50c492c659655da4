package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/seifenwerk/orderdesk/internal/domain/order"
)

type OrderRepository struct {
	mu      sync.RWMutex
	orders  map[string]*domain.Order
	numbers map[string]string // order number -> id
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:  make(map[string]*domain.Order),
		numbers: make(map[string]string),
	}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	_ = ctx
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; exists {
		return domain.ErrConflict
	}
	if o.Number != "" {
		if _, exists := r.numbers[o.Number]; exists {
			return domain.ErrConflict
		}
	}

	r.orders[o.ID] = o.Clone()
	if o.Number != "" {
		r.numbers[o.Number] = o.ID
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	_ = ctx
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; !exists {
		return domain.ErrNotFound
	}
	r.orders[o.ID] = o.Clone()
	if o.Number != "" {
		r.numbers[o.Number] = o.ID
	}
	return nil
}

func (r *OrderRepository) FindBySourceInquiry(ctx context.Context, inquiryID string) (*domain.Order, error) {
	_ = ctx
	if inquiryID == "" {
		return nil, domain.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if o.SourceInquiryID == inquiryID {
			return o.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *OrderRepository) FindByProcessorRef(ctx context.Context, processorOrderID string) (*domain.Order, error) {
	_ = ctx
	if processorOrderID == "" {
		return nil, domain.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if o.Payment.ProcessorOrderID == processorOrderID {
			return o.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}
