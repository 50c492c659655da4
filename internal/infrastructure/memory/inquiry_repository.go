package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/seifenwerk/orderdesk/internal/domain/inquiry"
)

type InquiryRepository struct {
	mu        sync.RWMutex
	inquiries map[string]*domain.Inquiry
}

func NewInquiryRepository() *InquiryRepository {
	return &InquiryRepository{inquiries: make(map[string]*domain.Inquiry)}
}

func (r *InquiryRepository) Insert(ctx context.Context, q *domain.Inquiry) error {
	_ = ctx
	if q == nil || q.ID == "" {
		return fmt.Errorf("inquiry repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.inquiries[q.ID]; exists {
		return fmt.Errorf("inquiry repository: duplicate id %s", q.ID)
	}
	r.inquiries[q.ID] = cloneInquiry(q)
	return nil
}

func (r *InquiryRepository) Get(ctx context.Context, id string) (*domain.Inquiry, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.inquiries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneInquiry(q), nil
}

func (r *InquiryRepository) Update(ctx context.Context, q *domain.Inquiry) error {
	_ = ctx
	if q == nil || q.ID == "" {
		return fmt.Errorf("inquiry repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.inquiries[q.ID]; !exists {
		return domain.ErrNotFound
	}
	r.inquiries[q.ID] = cloneInquiry(q)
	return nil
}

func cloneInquiry(q *domain.Inquiry) *domain.Inquiry {
	clone := *q
	clone.Items = append([]domain.LineItem(nil), q.Items...)
	if q.BillingAddress != nil {
		addr := *q.BillingAddress
		clone.BillingAddress = &addr
	}
	if q.ShippingAddress != nil {
		addr := *q.ShippingAddress
		clone.ShippingAddress = &addr
	}
	if q.Response != nil {
		resp := *q.Response
		clone.Response = &resp
	}
	return &clone
}
