package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/seifenwerk/orderdesk/internal/domain/invoice"
)

type sequenceKey struct {
	year     int
	sequence int
}

type InvoiceRepository struct {
	mu        sync.RWMutex
	invoices  map[string]*domain.Invoice
	sequences map[sequenceKey]string // (year, sequence) -> id
}

func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{
		invoices:  make(map[string]*domain.Invoice),
		sequences: make(map[sequenceKey]string),
	}
}

func (r *InvoiceRepository) Insert(ctx context.Context, inv *domain.Invoice) error {
	_ = ctx
	if inv == nil || inv.ID == "" {
		return fmt.Errorf("invoice repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.invoices[inv.ID]; exists {
		return domain.ErrConflict
	}
	key := sequenceKey{year: inv.Year, sequence: inv.Sequence}
	if _, exists := r.sequences[key]; exists {
		return domain.ErrConflict
	}

	r.invoices[inv.ID] = inv.Clone()
	r.sequences[key] = inv.ID
	return nil
}

func (r *InvoiceRepository) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.invoices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return inv.Clone(), nil
}

func (r *InvoiceRepository) GetByOrder(ctx context.Context, orderID string) (*domain.Invoice, error) {
	_ = ctx
	if orderID == "" {
		return nil, domain.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, inv := range r.invoices {
		if inv.OrderID == orderID {
			return inv.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *InvoiceRepository) Update(ctx context.Context, inv *domain.Invoice) error {
	_ = ctx
	if inv == nil || inv.ID == "" {
		return fmt.Errorf("invoice repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.invoices[inv.ID]; !exists {
		return domain.ErrNotFound
	}
	r.invoices[inv.ID] = inv.Clone()
	return nil
}

func (r *InvoiceRepository) SequencesForYear(ctx context.Context, year int) ([]int, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var seqs []int
	for key := range r.sequences {
		if key.year == year {
			seqs = append(seqs, key.sequence)
		}
	}
	sort.Ints(seqs)
	return seqs, nil
}

// Delete removes an invoice and frees its sequence number, leaving a hole
// for the allocator to fill.
func (r *InvoiceRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invoices[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.sequences, sequenceKey{year: inv.Year, sequence: inv.Sequence})
	delete(r.invoices, id)
	return nil
}
