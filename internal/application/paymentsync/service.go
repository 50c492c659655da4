package paymentsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/seifenwerk/orderdesk/internal/domain/inquiry"
	"github.com/seifenwerk/orderdesk/internal/domain/invoice"
	"github.com/seifenwerk/orderdesk/internal/domain/order"
	"github.com/seifenwerk/orderdesk/internal/domain/payment"
	"github.com/seifenwerk/orderdesk/internal/pkg/logging"
	"github.com/seifenwerk/orderdesk/internal/pkg/metrics"
)

var ErrCaptureNotCompleted = errors.New("paymentsync: capture not completed")

// Capture is a confirmed payment-capture event delivered by the processor.
type Capture struct {
	OrderID          string
	ProcessorOrderID string
	TransactionID    string
	Status           payment.CaptureStatus
	At               time.Time
}

type Result struct {
	OrderID string
	// Applied is false when the capture was a no-op (already paid).
	Applied bool
}

// Coordinator keeps order, invoice and inquiry payment state in step.
//
// Both sync directions are idempotent and never downgrade a status. When a
// secondary record cannot be updated, the committed primary update is NOT
// rolled back; the failure is only logged (best-effort secondary
// consistency: there are no multi-record transactions).
type Coordinator struct {
	orders    order.Repository
	invoices  invoice.Repository
	inquiries inquiry.Repository
}

func NewCoordinator(orders order.Repository, invoices invoice.Repository, inquiries inquiry.Repository) *Coordinator {
	return &Coordinator{
		orders:    orders,
		invoices:  invoices,
		inquiries: inquiries,
	}
}

// ApplyCapture reflects a capture confirmation on the order, then one-way
// syncs the linked invoice and source inquiry.
func (c *Coordinator) ApplyCapture(ctx context.Context, capture Capture) (_ *Result, err error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "payment_sync"),
		zap.String("order_id", capture.OrderID),
		zap.String("transaction_id", capture.TransactionID),
	)

	ctx, span := otel.Tracer("paymentsync").Start(ctx, "Coordinator.ApplyCapture")
	span.SetAttributes(attribute.String("order.id", capture.OrderID))
	outcome := "success"
	defer func() {
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, "capture sync failed")
		} else {
			span.SetStatus(codes.Ok, "")
		}
		metrics.PaymentSyncs.WithLabelValues("capture", outcome).Inc()
		span.End()
	}()

	if capture.Status != payment.CaptureCompleted {
		logger.Info("capture_ignored", zap.String("status", string(capture.Status)))
		return nil, fmt.Errorf("%w: %s", ErrCaptureNotCompleted, capture.Status)
	}

	o, err := c.resolveOrder(ctx, capture)
	if err != nil {
		return nil, err
	}

	at := capture.At
	if at.IsZero() {
		at = time.Now()
	}
	if !o.MarkPaid(capture.TransactionID, at, "payment-processor") {
		// Re-applying a capture for an already-paid order is a no-op.
		logger.Info("capture_already_applied")
		return &Result{OrderID: o.ID, Applied: false}, nil
	}
	if capture.ProcessorOrderID != "" {
		o.Payment.ProcessorOrderID = capture.ProcessorOrderID
	}
	if err := c.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("paymentsync: update order: %w", err)
	}

	c.syncInvoiceFromOrder(ctx, o, capture.TransactionID, at, logger)
	c.syncInquiryFromOrder(ctx, o, logger)

	logger.Info("capture_applied", zap.String("order_status", string(o.Status)))
	return &Result{OrderID: o.ID, Applied: true}, nil
}

// MarkInvoicePaid is the operator action of settling an invoice directly.
// It propagates to the linked order when that order is not yet paid.
func (c *Coordinator) MarkInvoicePaid(ctx context.Context, invoiceID, actor string) error {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "payment_sync"),
		zap.String("invoice_id", invoiceID),
	)

	inv, err := c.invoices.Get(ctx, invoiceID)
	if err != nil {
		metrics.PaymentSyncs.WithLabelValues("invoice", "error").Inc()
		return err
	}

	now := time.Now()
	if !inv.MarkPaid("", now) {
		logger.Info("invoice_already_paid")
		metrics.PaymentSyncs.WithLabelValues("invoice", "success").Inc()
		return nil
	}
	if err := c.invoices.Update(ctx, inv); err != nil {
		metrics.PaymentSyncs.WithLabelValues("invoice", "error").Inc()
		return fmt.Errorf("paymentsync: update invoice: %w", err)
	}

	// Invoice → order propagation only happens on this explicit status
	// change, and never downgrades a paid order.
	if inv.OrderID != "" {
		o, orderErr := c.orders.Get(ctx, inv.OrderID)
		switch {
		case orderErr != nil:
			logger.Warn("linked_order_lookup_failed", zap.String("order_id", inv.OrderID), zap.Error(orderErr))
		case o.MarkPaid(inv.Payment.TransactionID, now, actor):
			if err := c.orders.Update(ctx, o); err != nil {
				logger.Warn("linked_order_update_failed", zap.String("order_id", o.ID), zap.Error(err))
			}
		}
	}

	metrics.PaymentSyncs.WithLabelValues("invoice", "success").Inc()
	logger.Info("invoice_marked_paid", zap.String("invoice_number", inv.Number))
	return nil
}

// Repair idempotently re-derives invoice and inquiry payment state from the
// order's recorded payment facts. Divergent states stay reachable in normal
// operation; this is the explicit repair path for them.
func (c *Coordinator) Repair(ctx context.Context, orderID string) error {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "payment_sync"),
		zap.String("order_id", orderID),
	)

	o, err := c.orders.Get(ctx, orderID)
	if err != nil {
		metrics.PaymentSyncs.WithLabelValues("repair", "error").Inc()
		return err
	}

	if o.Payment.Status == order.PaymentStatusPaid {
		at := time.Now()
		if o.Payment.PaidAt != nil {
			at = *o.Payment.PaidAt
		}
		c.syncInvoiceFromOrder(ctx, o, o.Payment.TransactionID, at, logger)
		c.syncInquiryFromOrder(ctx, o, logger)
	} else if inv, invErr := c.invoices.GetByOrder(ctx, o.ID); invErr == nil && inv.Status == invoice.StatusPaid {
		at := time.Now()
		if inv.Payment.PaidAt != nil {
			at = *inv.Payment.PaidAt
		}
		if o.MarkPaid(inv.Payment.TransactionID, at, "repair") {
			if err := c.orders.Update(ctx, o); err != nil {
				metrics.PaymentSyncs.WithLabelValues("repair", "error").Inc()
				return fmt.Errorf("paymentsync: repair order: %w", err)
			}
		}
	}

	metrics.PaymentSyncs.WithLabelValues("repair", "success").Inc()
	logger.Info("payment_state_repaired")
	return nil
}

func (c *Coordinator) resolveOrder(ctx context.Context, capture Capture) (*order.Order, error) {
	if capture.OrderID != "" {
		return c.orders.Get(ctx, capture.OrderID)
	}
	if capture.ProcessorOrderID != "" {
		return c.orders.FindByProcessorRef(ctx, capture.ProcessorOrderID)
	}
	return nil, order.ErrNotFound
}

func (c *Coordinator) syncInvoiceFromOrder(ctx context.Context, o *order.Order, transactionID string, at time.Time, logger *zap.Logger) {
	inv, err := c.lookupInvoice(ctx, o)
	if err != nil {
		if !errors.Is(err, invoice.ErrNotFound) {
			logger.Warn("linked_invoice_lookup_failed", zap.Error(err))
		}
		return
	}
	if !inv.MarkPaid(transactionID, at) {
		return
	}
	if err := c.invoices.Update(ctx, inv); err != nil {
		logger.Warn("linked_invoice_update_failed",
			zap.String("invoice_number", inv.Number),
			zap.Error(err),
		)
	}
}

func (c *Coordinator) syncInquiryFromOrder(ctx context.Context, o *order.Order, logger *zap.Logger) {
	if o.SourceInquiryID == "" {
		return
	}
	q, err := c.inquiries.Get(ctx, o.SourceInquiryID)
	if err != nil {
		logger.Warn("source_inquiry_lookup_failed",
			zap.String("inquiry_id", o.SourceInquiryID),
			zap.Error(err),
		)
		return
	}
	if !q.MarkPaid(o.Payment.ProcessorOrderID) {
		return
	}
	if err := c.inquiries.Update(ctx, q); err != nil {
		logger.Warn("source_inquiry_update_failed",
			zap.String("inquiry_id", q.ID),
			zap.Error(err),
		)
	}
}

func (c *Coordinator) lookupInvoice(ctx context.Context, o *order.Order) (*invoice.Invoice, error) {
	if o.InvoiceID != "" {
		return c.invoices.Get(ctx, o.InvoiceID)
	}
	return c.invoices.GetByOrder(ctx, o.ID)
}
