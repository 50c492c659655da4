package invoicing

import (
	"context"
	"fmt"

	"github.com/seifenwerk/orderdesk/internal/domain/invoice"
)

// Allocation is one issued invoice number.
type Allocation struct {
	Year     int
	Sequence int
	Number   string
}

// SequenceAllocator issues gapless invoice numbers per calendar year.
// Invoice numbering must stay legally gapless for audit purposes, so the
// allocator fills holes left by deleted invoices instead of appending to a
// high-water mark.
type SequenceAllocator struct {
	invoices invoice.Repository
}

func NewSequenceAllocator(invoices invoice.Repository) *SequenceAllocator {
	return &SequenceAllocator{invoices: invoices}
}

// Next returns the lowest sequence number not yet allocated for the year.
// The read-then-write window is unprotected; the storage layer's unique
// constraint catches the race and the caller retries on invoice.ErrConflict.
func (a *SequenceAllocator) Next(ctx context.Context, year int) (Allocation, error) {
	taken, err := a.invoices.SequencesForYear(ctx, year)
	if err != nil {
		return Allocation{}, fmt.Errorf("invoicing: load sequences for %d: %w", year, err)
	}

	next := 1
	for _, seq := range taken {
		if seq > next {
			break
		}
		if seq == next {
			next++
		}
	}

	return Allocation{
		Year:     year,
		Sequence: next,
		Number:   invoice.FormatNumber(year, next),
	}, nil
}
