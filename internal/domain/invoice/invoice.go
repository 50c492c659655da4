package invoice

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("invoice: not found")
	// ErrConflict signals that the sequence or invoice number is already
	// taken; the allocator must re-run and retry the insert.
	ErrConflict = errors.New("invoice: number conflict")
	ErrNoItems  = errors.New("invoice: at least one line item is required")
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusOverdue   Status = "overdue"
)

type Customer struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type LineItem struct {
	ProductRef string          `json:"product_ref"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

type Amounts struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	VAT      decimal.Decimal `json:"vat"`
	Total    decimal.Decimal `json:"total"`
}

type Payment struct {
	Method        string     `json:"method"`
	TransactionID string     `json:"transaction_id"`
	PaidAt        *time.Time `json:"paid_at"`
}

type Invoice struct {
	ID string
	// Number is the legally gapless identifier, formatted YYYY-NNNNNN.
	Number string
	// Sequence is unique per calendar year.
	Sequence int
	Year     int
	OrderID  string
	Customer Customer
	Items    []LineItem
	Amounts  Amounts
	Status   Status
	IssuedAt time.Time
	DueAt    time.Time
	Payment  Payment
}

func New(id, orderID string, customer Customer, items []LineItem, issuedAt time.Time, dueDays int) (*Invoice, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	issued := issuedAt.UTC()
	return &Invoice{
		ID:       id,
		OrderID:  orderID,
		Customer: customer,
		Items:    items,
		Status:   StatusDraft,
		IssuedAt: issued,
		DueAt:    issued.AddDate(0, 0, dueDays),
	}, nil
}

// FormatNumber renders the invoice number as "{year}-{sequence}" with the
// sequence zero-padded to six digits.
func FormatNumber(year, sequence int) string {
	return fmt.Sprintf("%d-%06d", year, sequence)
}

// AssignNumber stamps the allocated sequence onto the invoice.
func (inv *Invoice) AssignNumber(year, sequence int) {
	inv.Year = year
	inv.Sequence = sequence
	inv.Number = FormatNumber(year, sequence)
}

// Normalize recomputes every derived amount before a save: line totals are
// always quantity * unit price, the subtotal is their sum, and VAT is zero
// for a tax-exempt business or ratePercent% of (subtotal + shipping)
// otherwise.
func (inv *Invoice) Normalize(ratePercent decimal.Decimal, taxExempt bool) {
	subtotal := decimal.Zero
	for i := range inv.Items {
		qty := decimal.NewFromInt(int64(inv.Items[i].Quantity))
		inv.Items[i].LineTotal = inv.Items[i].UnitPrice.Mul(qty).Round(2)
		subtotal = subtotal.Add(inv.Items[i].LineTotal)
	}
	inv.Amounts.Subtotal = subtotal.Round(2)

	base := inv.Amounts.Subtotal.Add(inv.Amounts.Shipping)
	if taxExempt {
		inv.Amounts.VAT = decimal.Zero
	} else {
		inv.Amounts.VAT = base.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(2)
	}
	inv.Amounts.Total = base.Add(inv.Amounts.VAT).Round(2)
}

func (inv *Invoice) MarkSent() { inv.Status = StatusSent }

// MarkPaid transitions the invoice to paid. Returns false when it already is,
// so the one-way order sync stays idempotent.
func (inv *Invoice) MarkPaid(transactionID string, at time.Time) bool {
	if inv.Status == StatusPaid {
		return false
	}
	paidAt := at.UTC()
	inv.Status = StatusPaid
	inv.Payment.PaidAt = &paidAt
	if transactionID != "" {
		inv.Payment.TransactionID = transactionID
	}
	return true
}

func (inv *Invoice) Clone() *Invoice {
	clone := *inv
	clone.Items = append([]LineItem(nil), inv.Items...)
	if inv.Payment.PaidAt != nil {
		paidAt := *inv.Payment.PaidAt
		clone.Payment.PaidAt = &paidAt
	}
	return &clone
}
