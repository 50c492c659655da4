package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/seifenwerk/orderdesk/internal/domain/inventory"
)

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) Get(ctx context.Context, materialRef string) (*domain.Item, error) {
	var row stockRow
	err := r.db.WithContext(ctx).First(&row, "material_ref = ?", materialRef).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("gormstore: get stock: %w", err)
	}
	return row.toDomain(), nil
}

func (r *InventoryRepository) Save(ctx context.Context, item *domain.Item) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "material_ref"}},
			UpdateAll: true,
		}).
		Create(toStockRow(item)).Error
	if err != nil {
		return fmt.Errorf("gormstore: save stock: %w", err)
	}
	return nil
}
