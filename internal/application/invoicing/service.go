package invoicing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/seifenwerk/orderdesk/internal/domain/document"
	"github.com/seifenwerk/orderdesk/internal/domain/invoice"
	"github.com/seifenwerk/orderdesk/internal/domain/order"
	"github.com/seifenwerk/orderdesk/internal/pkg/logging"
	"github.com/seifenwerk/orderdesk/internal/pkg/metrics"
)

// ErrAllocationExhausted is returned when every allocation attempt collided
// with a concurrent insert. Transient: the caller may retry.
var ErrAllocationExhausted = errors.New("invoicing: sequence allocation retries exhausted")

type IDGenerator interface {
	NewID() string
}

// Settings carries the billing configuration of the issuing business.
type Settings struct {
	VATRatePercent decimal.Decimal
	TaxExempt      bool
	DueDays        int
	// Retries bounds the allocation retry loop on sequence conflicts.
	Retries  int
	Template document.TemplateConfig
}

// Generator turns an order into a numbered invoice and requests the document
// render. Rendering is best-effort; the invoice exists even when no document
// could be produced.
type Generator struct {
	invoices invoice.Repository
	alloc    *SequenceAllocator
	renderer document.Renderer
	ids      IDGenerator
	settings Settings
}

func NewGenerator(invoices invoice.Repository, alloc *SequenceAllocator, renderer document.Renderer, ids IDGenerator, settings Settings) *Generator {
	if settings.Retries <= 0 {
		settings.Retries = 3
	}
	return &Generator{
		invoices: invoices,
		alloc:    alloc,
		renderer: renderer,
		ids:      ids,
		settings: settings,
	}
}

// ForOrder builds, numbers and persists the invoice for an order.
func (g *Generator) ForOrder(ctx context.Context, o *order.Order) (_ *invoice.Invoice, err error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "invoice_generator"))

	ctx, span := otel.Tracer("invoicing").Start(ctx, "Generator.ForOrder")
	span.SetAttributes(attribute.String("order.id", o.ID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "generation failed")
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	inv, err := g.build(o)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for attempt := 0; attempt < g.settings.Retries; attempt++ {
		alloc, allocErr := g.alloc.Next(ctx, now.Year())
		if allocErr != nil {
			return nil, allocErr
		}
		inv.AssignNumber(alloc.Year, alloc.Sequence)

		insertErr := g.invoices.Insert(ctx, inv)
		if insertErr == nil {
			span.SetAttributes(attribute.String("invoice.number", inv.Number))
			logger.Info("invoice_created",
				zap.String("order_id", o.ID),
				zap.String("invoice_number", inv.Number),
			)
			g.render(ctx, inv, logger)
			return inv, nil
		}
		if !errors.Is(insertErr, invoice.ErrConflict) {
			return nil, fmt.Errorf("invoicing: insert: %w", insertErr)
		}
		metrics.SequenceConflicts.Inc()
		logger.Warn("invoice_sequence_conflict",
			zap.String("invoice_number", inv.Number),
			zap.Int("attempt", attempt+1),
		)
	}

	return nil, ErrAllocationExhausted
}

func (g *Generator) build(o *order.Order) (*invoice.Invoice, error) {
	items := make([]invoice.LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, invoice.LineItem{
			ProductRef: it.ProductRef,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
		})
	}

	customer := invoice.Customer{
		Name:       o.Buyer.FirstName + " " + o.Buyer.LastName,
		Email:      o.Buyer.Email,
		Street:     o.BillingAddress.Street,
		City:       o.BillingAddress.City,
		PostalCode: o.BillingAddress.PostalCode,
		Country:    o.BillingAddress.Country,
	}

	inv, err := invoice.New(g.ids.NewID(), o.ID, customer, items, time.Now(), g.settings.DueDays)
	if err != nil {
		return nil, err
	}
	inv.Amounts.Shipping = o.Totals.Shipping
	inv.Normalize(g.settings.VATRatePercent, g.settings.TaxExempt)
	inv.MarkSent()
	return inv, nil
}

// render requests the billing document. Failures are logged, never fatal.
func (g *Generator) render(ctx context.Context, inv *invoice.Invoice, logger *zap.Logger) {
	if g.renderer == nil {
		return
	}
	if _, err := g.renderer.Render(ctx, inv, g.settings.Template); err != nil {
		logger.Warn("invoice_render_failed",
			zap.String("invoice_number", inv.Number),
			zap.Error(err),
		)
	}
}
