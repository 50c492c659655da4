package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("order: not found")
	ErrConflict     = errors.New("order: conflict")
	ErrNoItems      = errors.New("order: at least one line item is required")
	ErrEmptyBuyer   = errors.New("order: buyer name is required")
	ErrInvalidActor = errors.New("order: actor is required")
)

const (
	SourceDirect  = "direct"
	SourceInquiry = "inquiry"
)

type Buyer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type Address struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// LineItem carries the price snapshot captured at order time. It is never
// re-derived from the live product.
type LineItem struct {
	ProductRef string          `json:"product_ref"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

// Totals is the computed price breakdown. GrandTotal is a pure function of
// the other fields; call Recalculate after changing any of them.
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	Tax        decimal.Decimal `json:"tax"`
	Discount   decimal.Decimal `json:"discount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Recalculate recomputes GrandTotal = subtotal + shipping + tax - discount,
// clamped at zero.
func (t *Totals) Recalculate() {
	total := t.Subtotal.Add(t.Shipping).Add(t.Tax).Sub(t.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	t.GrandTotal = total.Round(2)
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type Payment struct {
	Method           string        `json:"method"`
	Status           PaymentStatus `json:"status"`
	ProcessorOrderID string        `json:"processor_order_id"`
	TransactionID    string        `json:"transaction_id"`
	PaidAt           *time.Time    `json:"paid_at"`
}

type Refund struct {
	Amount      decimal.Decimal `json:"amount"`
	Reason      string          `json:"reason"`
	RequestedAt time.Time       `json:"requested_at"`
}

type Order struct {
	ID              string
	Number          string
	Buyer           Buyer
	BillingAddress  Address
	ShippingAddress Address
	Items           []LineItem
	Totals          Totals
	Status          Status
	History         []StatusChange
	Payment         Payment
	Source          string
	SourceInquiryID string
	InvoiceID       string
	Refund          *Refund
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// New builds an order with an initial history entry, so the current status
// always equals the last history entry from the very first write.
func New(id string, buyer Buyer, items []LineItem, status Status, actor string) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	if buyer.FirstName == "" && buyer.LastName == "" {
		return nil, ErrEmptyBuyer
	}
	if !status.valid() {
		return nil, fmt.Errorf("order: unknown status %q", status)
	}
	now := time.Now().UTC()
	o := &Order{
		ID:        id,
		Buyer:     buyer,
		Items:     items,
		Status:    status,
		Source:    SourceDirect,
		Payment:   Payment{Status: PaymentStatusPending},
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.History = append(o.History, StatusChange{Status: status, At: now, Note: "order created", Actor: actor})
	return o, nil
}

// Transition moves the order to a new status, validating against the
// transition table and appending a history entry. The history is append-only.
func (o *Order) Transition(to Status, note, actor string) error {
	if actor == "" {
		return ErrInvalidActor
	}
	if to == o.Status {
		return nil
	}
	if !o.Status.canTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	o.appendHistory(to, note, actor)
	return nil
}

// MarkPaid records a confirmed capture. Returns false when the payment is
// already paid: re-applying a capture is a no-op, not an error, and must not
// grow the history.
func (o *Order) MarkPaid(transactionID string, at time.Time, actor string) bool {
	if o.Payment.Status == PaymentStatusPaid {
		return false
	}
	paidAt := at.UTC()
	o.Payment.Status = PaymentStatusPaid
	o.Payment.PaidAt = &paidAt
	if transactionID != "" {
		o.Payment.TransactionID = transactionID
	}
	// Move the order status toward paid where the lifecycle allows it;
	// fulfilment statuses (packed and beyond) are never pulled back.
	if o.Status.canTransitionTo(StatusPaid) {
		o.appendHistory(StatusPaid, "payment captured", actor)
	} else {
		o.touch()
	}
	return true
}

// RequestRefund records a refund request and moves the order to refund-pending.
func (o *Order) RequestRefund(amount decimal.Decimal, reason, actor string) error {
	if err := o.Transition(StatusRefundPending, reason, actor); err != nil {
		return err
	}
	o.Refund = &Refund{Amount: amount, Reason: reason, RequestedAt: time.Now().UTC()}
	return nil
}

func (o *Order) appendHistory(to Status, note, actor string) {
	now := time.Now().UTC()
	o.History = append(o.History, StatusChange{Status: to, At: now, Note: note, Actor: actor})
	o.Status = to
	o.UpdatedAt = now
}

func (o *Order) touch() { o.UpdatedAt = time.Now().UTC() }

func (o *Order) Clone() *Order {
	clone := *o
	clone.Items = append([]LineItem(nil), o.Items...)
	clone.History = append([]StatusChange(nil), o.History...)
	if o.Payment.PaidAt != nil {
		paidAt := *o.Payment.PaidAt
		clone.Payment.PaidAt = &paidAt
	}
	if o.Refund != nil {
		refund := *o.Refund
		clone.Refund = &refund
	}
	return &clone
}

// NewNumber derives a human-readable order number. Entropy comes from the
// caller so a storage collision can be retried with a fresh suffix.
func NewNumber(at time.Time, entropy string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(entropy, "-", ""))
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return fmt.Sprintf("SO-%s-%s", at.UTC().Format("20060102"), suffix)
}
