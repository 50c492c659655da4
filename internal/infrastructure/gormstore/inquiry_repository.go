package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/seifenwerk/orderdesk/internal/domain/inquiry"
)

type InquiryRepository struct {
	db *gorm.DB
}

func NewInquiryRepository(db *gorm.DB) *InquiryRepository {
	return &InquiryRepository{db: db}
}

func (r *InquiryRepository) Insert(ctx context.Context, q *domain.Inquiry) error {
	if err := r.db.WithContext(ctx).Create(toInquiryRow(q)).Error; err != nil {
		return fmt.Errorf("gormstore: insert inquiry: %w", err)
	}
	return nil
}

func (r *InquiryRepository) Get(ctx context.Context, id string) (*domain.Inquiry, error) {
	var row inquiryRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("gormstore: get inquiry: %w", err)
	}
	return row.toDomain(), nil
}

func (r *InquiryRepository) Update(ctx context.Context, q *domain.Inquiry) error {
	res := r.db.WithContext(ctx).Model(&inquiryRow{}).
		Where("id = ?", q.ID).
		Select("*").
		Updates(toInquiryRow(q))
	if res.Error != nil {
		return fmt.Errorf("gormstore: update inquiry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
