package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/seifenwerk/orderdesk/internal/domain/invoice"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Insert(ctx context.Context, inv *domain.Invoice) error {
	err := r.db.WithContext(ctx).Create(toInvoiceRow(inv)).Error
	if err != nil {
		// The unique constraints on number and (year, sequence) are the
		// only protection of the read-then-write allocation.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return fmt.Errorf("gormstore: insert invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	var row invoiceRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("gormstore: get invoice: %w", err)
	}
	return row.toDomain(), nil
}

func (r *InvoiceRepository) GetByOrder(ctx context.Context, orderID string) (*domain.Invoice, error) {
	if orderID == "" {
		return nil, domain.ErrNotFound
	}
	var row invoiceRow
	err := r.db.WithContext(ctx).First(&row, "order_id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("gormstore: get invoice by order: %w", err)
	}
	return row.toDomain(), nil
}

func (r *InvoiceRepository) Update(ctx context.Context, inv *domain.Invoice) error {
	res := r.db.WithContext(ctx).Model(&invoiceRow{}).
		Where("id = ?", inv.ID).
		Select("*").
		Updates(toInvoiceRow(inv))
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return fmt.Errorf("gormstore: update invoice: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *InvoiceRepository) SequencesForYear(ctx context.Context, year int) ([]int, error) {
	var seqs []int
	err := r.db.WithContext(ctx).Model(&invoiceRow{}).
		Where("year = ?", year).
		Order("sequence asc").
		Pluck("sequence", &seqs).Error
	if err != nil {
		return nil, fmt.Errorf("gormstore: sequences for year: %w", err)
	}
	return seqs, nil
}

// Delete removes an invoice, freeing its sequence number for the gap-filling
// allocator.
func (r *InvoiceRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&invoiceRow{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("gormstore: delete invoice: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
