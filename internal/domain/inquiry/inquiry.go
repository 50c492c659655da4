package inquiry

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("inquiry: not found")
	ErrAlreadyProcessed = errors.New("inquiry: already processed")
	ErrNoItems          = errors.New("inquiry: at least one line item is required")
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusAccepted       Status = "accepted"
	StatusRejected       Status = "rejected"
	StatusConverted      Status = "converted_to_order"
	StatusPaymentPending Status = "payment_pending"
	StatusPaid           Status = "paid"
)

type PaymentStatus string

const (
	PaymentStatusNone    PaymentStatus = ""
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type Address struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// LineItem carries a snapshot of the product as it looked when the customer
// submitted the inquiry. It is never re-derived from the live catalog.
type LineItem struct {
	ProductRef string          `json:"product_ref"`
	Name       string          `json:"name"`
	ImageURL   string          `json:"image_url"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// Response records the operator's answer to the inquiry.
type Response struct {
	Message string    `json:"message"`
	Actor   string    `json:"actor"`
	At      time.Time `json:"at"`
}

type Payment struct {
	Status           PaymentStatus   `json:"status"`
	ProcessorOrderID string          `json:"processor_order_id"`
	Amount           decimal.Decimal `json:"amount"`
}

type Inquiry struct {
	ID              string
	CustomerRef     string
	CustomerName    string
	CustomerEmail   string
	Items           []LineItem
	Total           decimal.Decimal
	BillingAddress  *Address
	ShippingAddress *Address
	Status          Status
	// ConvertedOrderID is set exactly once, when the conversion pipeline
	// created an order from this inquiry.
	ConvertedOrderID string
	Response         *Response
	Payment          Payment
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func New(id, customerRef, customerName, customerEmail string, items []LineItem) (*Inquiry, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	now := time.Now().UTC()
	return &Inquiry{
		ID:            id,
		CustomerRef:   customerRef,
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		Items:         items,
		Total:         total.Round(2),
		Status:        StatusPending,
		Payment:       Payment{Amount: total.Round(2)},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Pending reports whether the inquiry is still awaiting an operator decision.
func (q *Inquiry) Pending() bool { return q.Status == StatusPending }

// RecordResponse stores the operator's message alongside the decision.
func (q *Inquiry) RecordResponse(message, actor string, at time.Time) {
	q.Response = &Response{Message: message, Actor: actor, At: at.UTC()}
	q.touch()
}

func (q *Inquiry) MarkAccepted() {
	q.Status = StatusAccepted
	q.touch()
}

func (q *Inquiry) MarkRejected() {
	q.Status = StatusRejected
	q.touch()
}

// MarkConverted links the inquiry to the order created from it. The link is
// write-once; a second call with a different order id is refused.
func (q *Inquiry) MarkConverted(orderID string) error {
	if q.ConvertedOrderID != "" && q.ConvertedOrderID != orderID {
		return ErrAlreadyProcessed
	}
	q.ConvertedOrderID = orderID
	q.Status = StatusConverted
	q.touch()
	return nil
}

// MarkPaid reflects a confirmed payment capture. Returns false when the
// inquiry already carries the paid status, so callers can skip the write.
func (q *Inquiry) MarkPaid(processorOrderID string) bool {
	if q.Payment.Status == PaymentStatusPaid {
		return false
	}
	q.Payment.Status = PaymentStatusPaid
	if processorOrderID != "" {
		q.Payment.ProcessorOrderID = processorOrderID
	}
	q.Status = StatusPaid
	q.touch()
	return true
}

func (q *Inquiry) touch() { q.UpdatedAt = time.Now().UTC() }
