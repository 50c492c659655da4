package conversion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	appinventory "github.com/seifenwerk/orderdesk/internal/application/inventory"
	"github.com/seifenwerk/orderdesk/internal/domain/inquiry"
	"github.com/seifenwerk/orderdesk/internal/domain/invoice"
	"github.com/seifenwerk/orderdesk/internal/domain/order"
	"github.com/seifenwerk/orderdesk/internal/domain/outbox"
	"github.com/seifenwerk/orderdesk/internal/pkg/logging"
	"github.com/seifenwerk/orderdesk/internal/pkg/metrics"
)

// placeholderAddress stands in when an inquiry carries no billing address.
// A missing address is a defensive fallback, not an error: conversion must
// not fail on incomplete customer data.
var placeholderAddress = order.Address{
	Name:       "Unknown",
	Street:     "Address to be confirmed",
	City:       "-",
	PostalCode: "00000",
	Country:    "DE",
}

type IDGenerator interface {
	NewID() string
}

// InvoiceGenerator is the collaborator boundary for invoice generation:
// retryable, never synchronous-critical.
type InvoiceGenerator interface {
	ForOrder(ctx context.Context, o *order.Order) (*invoice.Invoice, error)
}

// ShippingPolicy is the threshold rule: free above FreeFrom, flat Fee below.
type ShippingPolicy struct {
	FreeFrom decimal.Decimal
	Fee      decimal.Decimal
}

func (p ShippingPolicy) CostFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeFrom) {
		return decimal.Zero
	}
	return p.Fee
}

// Pipeline orchestrates the inquiry → order → invoice conversion.
//
// The steps are best-effort and non-transactional: inventory shortfalls and
// invoice-generation failures are logged and never roll back the order. The
// guard is only approximate under concurrency — two accepts racing past the
// pending check before either write lands is a known limitation, and the
// pipeline is correct only under the no-concurrent-accept assumption.
type Pipeline struct {
	inquiries inquiry.Repository
	orders    order.Repository
	ledger    *appinventory.Ledger
	generator InvoiceGenerator
	publisher outbox.Publisher
	ids       IDGenerator
	shipping  ShippingPolicy
	// vatRatePercent is the inclusive rate backed out of the quoted gross
	// total, e.g. 19 for 19%.
	vatRatePercent decimal.Decimal
	numberRetries  int
}

func NewPipeline(
	inquiries inquiry.Repository,
	orders order.Repository,
	ledger *appinventory.Ledger,
	generator InvoiceGenerator,
	publisher outbox.Publisher,
	ids IDGenerator,
	shipping ShippingPolicy,
	vatRatePercent decimal.Decimal,
) *Pipeline {
	return &Pipeline{
		inquiries:      inquiries,
		orders:         orders,
		ledger:         ledger,
		generator:      generator,
		publisher:      publisher,
		ids:            ids,
		shipping:       shipping,
		vatRatePercent: vatRatePercent,
		numberRetries:  5,
	}
}

type SubmitInput struct {
	CustomerRef     string
	CustomerName    string
	CustomerEmail   string
	Items           []inquiry.LineItem
	BillingAddress  *inquiry.Address
	ShippingAddress *inquiry.Address
}

// Submit records a customer inquiry and announces it. The announcement is
// fire-and-forget.
func (p *Pipeline) Submit(ctx context.Context, input SubmitInput) (*inquiry.Inquiry, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "conversion_pipeline"))

	q, err := inquiry.New(p.ids.NewID(), input.CustomerRef, input.CustomerName, input.CustomerEmail, input.Items)
	if err != nil {
		return nil, err
	}
	q.BillingAddress = input.BillingAddress
	q.ShippingAddress = input.ShippingAddress

	if err := p.inquiries.Insert(ctx, q); err != nil {
		return nil, fmt.Errorf("conversion: insert inquiry: %w", err)
	}

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, inquiry.NewReceivedEvent(q)); err != nil {
			logger.Warn("inquiry_received_event_publish_failed",
				zap.String("inquiry_id", q.ID),
				zap.Error(err),
			)
		}
	}

	logger.Info("inquiry_submitted", zap.String("inquiry_id", q.ID))
	return q, nil
}

type AcceptInput struct {
	InquiryID      string
	Message        string
	Actor          string
	ConvertToOrder bool
}

type AcceptResult struct {
	InquiryID     string
	OrderID       string
	OrderNumber   string
	InvoiceNumber string
	// Warnings collects the soft failures of secondary steps; the primary
	// action still succeeded.
	Warnings []string
}

// Accept processes the operator decision. With ConvertToOrder set it runs
// the full conversion; re-invoking accept on an already-converted inquiry
// fails the guard and creates nothing.
func (p *Pipeline) Accept(ctx context.Context, input AcceptInput) (_ *AcceptResult, err error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "conversion_pipeline"),
		zap.String("inquiry_id", input.InquiryID),
	)

	ctx, span := otel.Tracer("conversion").Start(ctx, "Pipeline.Accept")
	span.SetAttributes(
		attribute.String("inquiry.id", input.InquiryID),
		attribute.Bool("convert_to_order", input.ConvertToOrder),
	)
	outcome := "success"
	defer func() {
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, "accept failed")
		} else {
			span.SetStatus(codes.Ok, "")
		}
		metrics.Conversions.WithLabelValues("accept", outcome).Inc()
		span.End()
	}()

	logger.Info("accept_inquiry_start", zap.Bool("convert", input.ConvertToOrder))

	q, err := p.inquiries.Get(ctx, input.InquiryID)
	if err != nil {
		return nil, err
	}
	if !q.Pending() {
		if repaired := p.repairConvertedLink(ctx, q, logger); repaired {
			logger.Warn("converted_order_link_repaired", zap.String("order_id", q.ConvertedOrderID))
		}
		return nil, fmt.Errorf("%w: status %s", inquiry.ErrAlreadyProcessed, q.Status)
	}

	q.RecordResponse(input.Message, input.Actor, time.Now())

	if !input.ConvertToOrder {
		q.MarkAccepted()
		if err := p.inquiries.Update(ctx, q); err != nil {
			return nil, fmt.Errorf("conversion: update inquiry: %w", err)
		}
		logger.Info("inquiry_accepted")
		return &AcceptResult{InquiryID: q.ID}, nil
	}

	result := &AcceptResult{InquiryID: q.ID}

	// Stock bookkeeping first, best-effort per line item.
	for _, it := range q.Items {
		reduce, reduceErr := p.ledger.Reduce(ctx, it.ProductRef, it.Quantity)
		if reduceErr != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("inventory: %s: %v", it.ProductRef, reduceErr))
			continue
		}
		if !reduce.AllReduced() {
			result.Warnings = append(result.Warnings, fmt.Sprintf("inventory: %s: partial reduction", it.ProductRef))
		}
	}

	o, err := p.buildOrder(q, input.Actor)
	if err != nil {
		return nil, err
	}

	if err := p.persistOrder(ctx, o); err != nil {
		return nil, err
	}
	result.OrderID = o.ID
	result.OrderNumber = o.Number
	span.SetAttributes(attribute.String("order.id", o.ID))

	// Invoice generation is best-effort: the order exists even if no
	// invoice could be produced.
	if inv, invErr := p.generator.ForOrder(ctx, o); invErr != nil {
		logger.Warn("invoice_generation_failed", zap.String("order_id", o.ID), zap.Error(invErr))
		result.Warnings = append(result.Warnings, fmt.Sprintf("invoice: %v", invErr))
	} else {
		result.InvoiceNumber = inv.Number
		o.InvoiceID = inv.ID
		if err := p.orders.Update(ctx, o); err != nil {
			logger.Warn("order_invoice_link_failed", zap.String("order_id", o.ID), zap.Error(err))
			result.Warnings = append(result.Warnings, "order: invoice link not persisted")
		}
	}

	if err := q.MarkConverted(o.ID); err != nil {
		return nil, err
	}
	if err := p.inquiries.Update(ctx, q); err != nil {
		// The order already exists; the dangling link is repairable.
		logger.Error("inquiry_converted_update_failed", zap.String("order_id", o.ID), zap.Error(err))
		result.Warnings = append(result.Warnings, "inquiry: converted status not persisted")
	}

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, order.NewCreatedEvent(o)); err != nil {
			logger.Warn("order_created_event_publish_failed", zap.Error(err))
		}
	}

	logger.Info("accept_inquiry_done",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.Number),
		zap.String("invoice_number", result.InvoiceNumber),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

type RejectInput struct {
	InquiryID string
	Message   string
	Actor     string
}

// Reject records the operator response and closes the inquiry. No inventory
// or order side effects.
func (p *Pipeline) Reject(ctx context.Context, input RejectInput) error {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "conversion_pipeline"),
		zap.String("inquiry_id", input.InquiryID),
	)

	q, err := p.inquiries.Get(ctx, input.InquiryID)
	if err != nil {
		metrics.Conversions.WithLabelValues("reject", "error").Inc()
		return err
	}
	if !q.Pending() {
		metrics.Conversions.WithLabelValues("reject", "error").Inc()
		return fmt.Errorf("%w: status %s", inquiry.ErrAlreadyProcessed, q.Status)
	}

	q.RecordResponse(input.Message, input.Actor, time.Now())
	q.MarkRejected()
	if err := p.inquiries.Update(ctx, q); err != nil {
		metrics.Conversions.WithLabelValues("reject", "error").Inc()
		return fmt.Errorf("conversion: update inquiry: %w", err)
	}

	metrics.Conversions.WithLabelValues("reject", "success").Inc()
	logger.Info("inquiry_rejected")
	return nil
}

func (p *Pipeline) buildOrder(q *inquiry.Inquiry, actor string) (*order.Order, error) {
	first, last := splitName(q.CustomerName)
	buyer := order.Buyer{FirstName: first, LastName: last, Email: q.CustomerEmail}

	items := make([]order.LineItem, 0, len(q.Items))
	subtotal := decimal.Zero
	for _, it := range q.Items {
		lineTotal := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
		items = append(items, order.LineItem{
			ProductRef: it.ProductRef,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			LineTotal:  lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}

	o, err := order.New(p.ids.NewID(), buyer, items, order.StatusConfirmed, actor)
	if err != nil {
		return nil, err
	}

	o.BillingAddress = copyAddress(q.BillingAddress)
	if q.ShippingAddress != nil {
		o.ShippingAddress = copyAddress(q.ShippingAddress)
	} else {
		o.ShippingAddress = o.BillingAddress
	}

	shipping := p.shipping.CostFor(subtotal)
	gross := subtotal.Add(shipping)
	// Prices are quoted gross; back out the included VAT so the breakdown
	// still satisfies grandTotal = subtotal + shipping + tax - discount.
	tax := gross.Mul(p.vatRatePercent).
		Div(decimal.NewFromInt(100).Add(p.vatRatePercent)).
		Round(2)
	o.Totals = order.Totals{
		Subtotal: subtotal.Sub(tax),
		Shipping: shipping,
		Tax:      tax,
		Discount: decimal.Zero,
	}
	o.Totals.Recalculate()

	o.Source = order.SourceInquiry
	o.SourceInquiryID = q.ID
	if q.Payment.ProcessorOrderID != "" {
		o.Payment.ProcessorOrderID = q.Payment.ProcessorOrderID
	}
	return o, nil
}

// persistOrder inserts the order, regenerating the human-readable number on
// a storage collision.
func (p *Pipeline) persistOrder(ctx context.Context, o *order.Order) error {
	for attempt := 0; attempt < p.numberRetries; attempt++ {
		o.Number = order.NewNumber(time.Now(), p.ids.NewID())
		err := p.orders.Insert(ctx, o)
		if err == nil {
			return nil
		}
		if !errors.Is(err, order.ErrConflict) {
			return fmt.Errorf("conversion: insert order: %w", err)
		}
	}
	return fmt.Errorf("conversion: order number allocation: %w", order.ErrConflict)
}

// repairConvertedLink reconstructs a missing convertedOrderId from the
// order's back-reference. Referential gaps are repair conditions, not hard
// failures.
func (p *Pipeline) repairConvertedLink(ctx context.Context, q *inquiry.Inquiry, logger *zap.Logger) bool {
	if q.Status != inquiry.StatusConverted || q.ConvertedOrderID != "" {
		return false
	}
	o, err := p.orders.FindBySourceInquiry(ctx, q.ID)
	if err != nil {
		logger.Warn("converted_order_lookup_failed", zap.Error(err))
		return false
	}
	if err := q.MarkConverted(o.ID); err != nil {
		return false
	}
	if err := p.inquiries.Update(ctx, q); err != nil {
		logger.Warn("converted_order_link_update_failed", zap.Error(err))
		return false
	}
	return true
}

// splitName splits a free-form customer name into first/last defensively.
func splitName(full string) (first, last string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "Customer", ""
	case 1:
		return fields[0], ""
	default:
		return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
	}
}

func copyAddress(a *inquiry.Address) order.Address {
	if a == nil {
		return placeholderAddress
	}
	return order.Address{
		Name:       a.Name,
		Street:     a.Street,
		City:       a.City,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}
