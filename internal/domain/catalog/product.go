package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("catalog: product not found")

// Kind tags the product variant once at catalog level, so callers never have
// to probe multiple collections to figure out what a reference points at.
type Kind string

const (
	KindStandard  Kind = "standard"
	KindRawSoap   Kind = "raw_soap"
	KindFragrance Kind = "fragrance"
	KindPackaging Kind = "packaging"
)

// Component is one raw-material share of a composite product.
type Component struct {
	MaterialRef string          `json:"material_ref"`
	Percent     decimal.Decimal `json:"percent"`
}

type Product struct {
	Ref       string
	Name      string
	Kind      Kind
	UnitPrice decimal.Decimal
	ImageURL  string
	// Composition lists the raw-material backing of a composite product.
	// Empty for products tracked by a single stock record.
	Composition []Component
}

// IsComposite reports whether stock for the product is consumed
// proportionally from raw-material records instead of its own record.
func (p *Product) IsComposite() bool { return len(p.Composition) > 0 }

// Catalog is the read-only product lookup used to snapshot line items and to
// resolve composite-product percentages.
type Catalog interface {
	Lookup(ctx context.Context, ref string) (*Product, error)
}
