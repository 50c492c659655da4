package gormstore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/seifenwerk/orderdesk/internal/domain/inquiry"
	"github.com/seifenwerk/orderdesk/internal/domain/inventory"
	"github.com/seifenwerk/orderdesk/internal/domain/invoice"
	"github.com/seifenwerk/orderdesk/internal/domain/order"
)

// Line items, addresses, history and payment sub-objects are stored as JSON
// documents: the three collections are independent and joined only by
// denormalized id fields, so there is nothing relational to normalize.

type inquiryRow struct {
	ID               string             `gorm:"primaryKey;size:36"`
	CustomerRef      string             `gorm:"index"`
	CustomerName     string
	CustomerEmail    string
	Items            []inquiry.LineItem `gorm:"serializer:json"`
	Total            decimal.Decimal    `gorm:"type:numeric"`
	BillingAddress   *inquiry.Address   `gorm:"serializer:json"`
	ShippingAddress  *inquiry.Address   `gorm:"serializer:json"`
	Status           string             `gorm:"index;not null"`
	ConvertedOrderID string             `gorm:"index"`
	Response         *inquiry.Response  `gorm:"serializer:json"`
	Payment          inquiry.Payment    `gorm:"serializer:json"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (inquiryRow) TableName() string { return "inquiries" }

func toInquiryRow(q *inquiry.Inquiry) *inquiryRow {
	return &inquiryRow{
		ID:               q.ID,
		CustomerRef:      q.CustomerRef,
		CustomerName:     q.CustomerName,
		CustomerEmail:    q.CustomerEmail,
		Items:            q.Items,
		Total:            q.Total,
		BillingAddress:   q.BillingAddress,
		ShippingAddress:  q.ShippingAddress,
		Status:           string(q.Status),
		ConvertedOrderID: q.ConvertedOrderID,
		Response:         q.Response,
		Payment:          q.Payment,
		CreatedAt:        q.CreatedAt,
		UpdatedAt:        q.UpdatedAt,
	}
}

func (r *inquiryRow) toDomain() *inquiry.Inquiry {
	return &inquiry.Inquiry{
		ID:               r.ID,
		CustomerRef:      r.CustomerRef,
		CustomerName:     r.CustomerName,
		CustomerEmail:    r.CustomerEmail,
		Items:            r.Items,
		Total:            r.Total,
		BillingAddress:   r.BillingAddress,
		ShippingAddress:  r.ShippingAddress,
		Status:           inquiry.Status(r.Status),
		ConvertedOrderID: r.ConvertedOrderID,
		Response:         r.Response,
		Payment:          r.Payment,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type orderRow struct {
	ID              string               `gorm:"primaryKey;size:36"`
	Number          string               `gorm:"uniqueIndex;not null"`
	Buyer           order.Buyer          `gorm:"serializer:json"`
	BillingAddress  order.Address        `gorm:"serializer:json"`
	ShippingAddress order.Address        `gorm:"serializer:json"`
	Items           []order.LineItem     `gorm:"serializer:json"`
	Totals          order.Totals         `gorm:"serializer:json"`
	Status          string               `gorm:"index;not null"`
	History         []order.StatusChange `gorm:"serializer:json"`
	Payment         order.Payment        `gorm:"serializer:json"`
	// ProcessorRef duplicates Payment.ProcessorOrderID as a queryable column
	// for capture callbacks that only carry the processor's order id.
	ProcessorRef    string        `gorm:"index"`
	Source          string
	SourceInquiryID string        `gorm:"index"`
	InvoiceID       string        `gorm:"index"`
	Refund          *order.Refund `gorm:"serializer:json"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (orderRow) TableName() string { return "orders" }

func toOrderRow(o *order.Order) *orderRow {
	return &orderRow{
		ID:              o.ID,
		Number:          o.Number,
		Buyer:           o.Buyer,
		BillingAddress:  o.BillingAddress,
		ShippingAddress: o.ShippingAddress,
		Items:           o.Items,
		Totals:          o.Totals,
		Status:          string(o.Status),
		History:         o.History,
		Payment:         o.Payment,
		ProcessorRef:    o.Payment.ProcessorOrderID,
		Source:          o.Source,
		SourceInquiryID: o.SourceInquiryID,
		InvoiceID:       o.InvoiceID,
		Refund:          o.Refund,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (r *orderRow) toDomain() *order.Order {
	return &order.Order{
		ID:              r.ID,
		Number:          r.Number,
		Buyer:           r.Buyer,
		BillingAddress:  r.BillingAddress,
		ShippingAddress: r.ShippingAddress,
		Items:           r.Items,
		Totals:          r.Totals,
		Status:          order.Status(r.Status),
		History:         r.History,
		Payment:         r.Payment,
		Source:          r.Source,
		SourceInquiryID: r.SourceInquiryID,
		InvoiceID:       r.InvoiceID,
		Refund:          r.Refund,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type invoiceRow struct {
	ID       string             `gorm:"primaryKey;size:36"`
	Number   string             `gorm:"uniqueIndex;not null"`
	Year     int                `gorm:"uniqueIndex:idx_year_sequence,priority:1;not null"`
	Sequence int                `gorm:"uniqueIndex:idx_year_sequence,priority:2;not null"`
	OrderID  string             `gorm:"index"`
	Customer invoice.Customer   `gorm:"serializer:json"`
	Items    []invoice.LineItem `gorm:"serializer:json"`
	Amounts  invoice.Amounts    `gorm:"serializer:json"`
	Status   string             `gorm:"index;not null"`
	IssuedAt time.Time
	DueAt    time.Time
	Payment  invoice.Payment `gorm:"serializer:json"`
}

func (invoiceRow) TableName() string { return "invoices" }

func toInvoiceRow(inv *invoice.Invoice) *invoiceRow {
	return &invoiceRow{
		ID:       inv.ID,
		Number:   inv.Number,
		Year:     inv.Year,
		Sequence: inv.Sequence,
		OrderID:  inv.OrderID,
		Customer: inv.Customer,
		Items:    inv.Items,
		Amounts:  inv.Amounts,
		Status:   string(inv.Status),
		IssuedAt: inv.IssuedAt,
		DueAt:    inv.DueAt,
		Payment:  inv.Payment,
	}
}

func (r *invoiceRow) toDomain() *invoice.Invoice {
	return &invoice.Invoice{
		ID:       r.ID,
		Number:   r.Number,
		Year:     r.Year,
		Sequence: r.Sequence,
		OrderID:  r.OrderID,
		Customer: r.Customer,
		Items:    r.Items,
		Amounts:  r.Amounts,
		Status:   invoice.Status(r.Status),
		IssuedAt: r.IssuedAt,
		DueAt:    r.DueAt,
		Payment:  r.Payment,
	}
}

type stockRow struct {
	MaterialRef string          `gorm:"primaryKey"`
	Quantity    decimal.Decimal `gorm:"type:numeric;not null"`
	UpdatedAt   time.Time
}

func (stockRow) TableName() string { return "stock" }

func toStockRow(item *inventory.Item) *stockRow {
	return &stockRow{
		MaterialRef: item.MaterialRef,
		Quantity:    item.Quantity,
		UpdatedAt:   item.UpdatedAt,
	}
}

func (r *stockRow) toDomain() *inventory.Item {
	return &inventory.Item{
		MaterialRef: r.MaterialRef,
		Quantity:    r.Quantity,
		UpdatedAt:   r.UpdatedAt,
	}
}
