package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/seifenwerk/orderdesk/internal/domain/order"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	err := r.db.WithContext(ctx).Create(toOrderRow(o)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return fmt.Errorf("gormstore: insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var row orderRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("gormstore: get order: %w", err)
	}
	return row.toDomain(), nil
}

func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	res := r.db.WithContext(ctx).Model(&orderRow{}).
		Where("id = ?", o.ID).
		Select("*").
		Updates(toOrderRow(o))
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return fmt.Errorf("gormstore: update order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) FindBySourceInquiry(ctx context.Context, inquiryID string) (*domain.Order, error) {
	if inquiryID == "" {
		return nil, domain.ErrNotFound
	}
	var row orderRow
	err := r.db.WithContext(ctx).First(&row, "source_inquiry_id = ?", inquiryID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("gormstore: find order by inquiry: %w", err)
	}
	return row.toDomain(), nil
}

func (r *OrderRepository) FindByProcessorRef(ctx context.Context, processorOrderID string) (*domain.Order, error) {
	if processorOrderID == "" {
		return nil, domain.ErrNotFound
	}
	var row orderRow
	err := r.db.WithContext(ctx).First(&row, "processor_ref = ?", processorOrderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("gormstore: find order by processor ref: %w", err)
	}
	return row.toDomain(), nil
}
