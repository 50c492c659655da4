package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("inventory: stock record not found")
	ErrInvalidQuantity   = errors.New("inventory: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)

// Item is one stock record, keyed by the material or product it backs.
// Quantities are decimal because raw materials are consumed in fractional
// proportions of a composite product.
type Item struct {
	MaterialRef string
	Quantity    decimal.Decimal
	UpdatedAt   time.Time
}

func NewItem(materialRef string, quantity decimal.Decimal) (*Item, error) {
	if quantity.IsNegative() {
		return nil, ErrInvalidQuantity
	}
	return &Item{
		MaterialRef: materialRef,
		Quantity:    quantity,
		UpdatedAt:   time.Now().UTC(),
	}, nil
}

// Deduct removes quantity from the record. A shortfall leaves the record
// untouched; quantities never go negative.
func (i *Item) Deduct(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if quantity.GreaterThan(i.Quantity) {
		return ErrInsufficientStock
	}
	i.Quantity = i.Quantity.Sub(quantity)
	i.UpdatedAt = time.Now().UTC()
	return nil
}

type Repository interface {
	Get(ctx context.Context, materialRef string) (*Item, error)
	Save(ctx context.Context, item *Item) error
}
