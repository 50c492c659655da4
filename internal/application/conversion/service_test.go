package conversion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	appinventory "github.com/seifenwerk/orderdesk/internal/application/inventory"
	appinvoicing "github.com/seifenwerk/orderdesk/internal/application/invoicing"
	"github.com/seifenwerk/orderdesk/internal/domain/catalog"
	dominquiry "github.com/seifenwerk/orderdesk/internal/domain/inquiry"
	dominventory "github.com/seifenwerk/orderdesk/internal/domain/inventory"
	"github.com/seifenwerk/orderdesk/internal/domain/invoice"
	"github.com/seifenwerk/orderdesk/internal/domain/order"
	"github.com/seifenwerk/orderdesk/internal/domain/outbox"
	"github.com/seifenwerk/orderdesk/internal/infrastructure/memory"
)

type sequentialIDs struct{ n int }

func (g *sequentialIDs) NewID() string {
	g.n++
	return fmt.Sprintf("id-%04d", g.n)
}

type capturePublisher struct {
	mu     sync.Mutex
	events []outbox.Event
}

func (p *capturePublisher) Publish(ctx context.Context, e outbox.Event) error {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) named(name string) []outbox.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []outbox.Event
	for _, e := range p.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	pipeline  *Pipeline
	inquiries *memory.InquiryRepository
	orders    *memory.OrderRepository
	invoices  *memory.InvoiceRepository
	stock     *memory.InventoryRepository
	publisher *capturePublisher
}

func newFixture(t *testing.T, generator InvoiceGenerator) *fixture {
	t.Helper()

	cat := memory.NewCatalog()
	cat.Seed(catalog.Product{
		Ref:       "soap-rose",
		Name:      "Rose Soap Bar",
		Kind:      catalog.KindStandard,
		UnitPrice: decimal.RequireFromString("8.90"),
	})

	stock := memory.NewInventoryRepository()
	item, err := dominventory.NewItem("soap-rose", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, stock.Save(context.Background(), item))

	publisher := &capturePublisher{}
	ids := &sequentialIDs{}
	invoices := memory.NewInvoiceRepository()
	if generator == nil {
		generator = appinvoicing.NewGenerator(
			invoices,
			appinvoicing.NewSequenceAllocator(invoices),
			nil,
			ids,
			appinvoicing.Settings{
				VATRatePercent: decimal.NewFromInt(19),
				TaxExempt:      true,
				DueDays:        14,
				Retries:        3,
			},
		)
	}

	f := &fixture{
		inquiries: memory.NewInquiryRepository(),
		orders:    memory.NewOrderRepository(),
		invoices:  invoices,
		stock:     stock,
		publisher: publisher,
	}
	f.pipeline = NewPipeline(
		f.inquiries,
		f.orders,
		appinventory.NewLedger(cat, stock, publisher),
		generator,
		publisher,
		ids,
		ShippingPolicy{
			FreeFrom: decimal.NewFromInt(39),
			Fee:      decimal.RequireFromString("4.90"),
		},
		decimal.NewFromInt(19),
	)
	return f
}

func (f *fixture) submit(t *testing.T, quantity int) *dominquiry.Inquiry {
	t.Helper()
	q, err := f.pipeline.Submit(context.Background(), SubmitInput{
		CustomerRef:   "cust-1",
		CustomerName:  "Lena Vogel",
		CustomerEmail: "lena@example.com",
		Items: []dominquiry.LineItem{{
			ProductRef: "soap-rose",
			Name:       "Rose Soap Bar",
			Quantity:   quantity,
			UnitPrice:  decimal.RequireFromString("8.90"),
		}},
		BillingAddress: &dominquiry.Address{
			Name: "Lena Vogel", Street: "Hauptstr. 1", City: "Berlin", PostalCode: "10115", Country: "DE",
		},
	})
	require.NoError(t, err)
	return q
}

func TestSubmitCreatesPendingInquiry(t *testing.T) {
	f := newFixture(t, nil)

	q := f.submit(t, 4)
	require.Equal(t, dominquiry.StatusPending, q.Status)
	require.True(t, q.Total.Equal(decimal.RequireFromString("35.60")), q.Total.String())

	stored, err := f.inquiries.Get(context.Background(), q.ID)
	require.NoError(t, err)
	require.True(t, stored.Pending())
	require.Len(t, f.publisher.named("inquiry.received"), 1)
}

func TestAcceptConvertsToOrderAndInvoice(t *testing.T) {
	f := newFixture(t, nil)
	q := f.submit(t, 4)

	result, err := f.pipeline.Accept(context.Background(), AcceptInput{
		InquiryID:      q.ID,
		Message:        "thanks, shipping this week",
		Actor:          "anna",
		ConvertToOrder: true,
	})
	require.NoError(t, err)
	require.Empty(t, result.Warnings)
	require.NotEmpty(t, result.OrderID)
	require.Contains(t, result.OrderNumber, "SO-")

	o, err := f.orders.Get(context.Background(), result.OrderID)
	require.NoError(t, err)
	require.Equal(t, order.StatusConfirmed, o.Status)
	require.Equal(t, order.SourceInquiry, o.Source)
	require.Equal(t, q.ID, o.SourceInquiryID)
	require.Equal(t, "Lena", o.Buyer.FirstName)
	require.Equal(t, "Vogel", o.Buyer.LastName)
	require.Equal(t, "Berlin", o.BillingAddress.City)
	// No shipping address on the inquiry: billing is reused.
	require.Equal(t, o.BillingAddress, o.ShippingAddress)

	// 35.60 gross below the 39.00 threshold: 4.90 shipping, VAT backed out
	// of the quoted gross so the invariant still holds at 40.50.
	require.True(t, o.Totals.Shipping.Equal(decimal.RequireFromString("4.90")))
	require.True(t, o.Totals.Tax.Equal(decimal.RequireFromString("6.47")), o.Totals.Tax.String())
	require.True(t, o.Totals.Subtotal.Equal(decimal.RequireFromString("29.13")), o.Totals.Subtotal.String())
	require.True(t, o.Totals.GrandTotal.Equal(decimal.RequireFromString("40.50")), o.Totals.GrandTotal.String())

	year := time.Now().UTC().Year()
	require.Equal(t, invoice.FormatNumber(year, 1), result.InvoiceNumber)
	inv, err := f.invoices.GetByOrder(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, invoice.StatusSent, inv.Status)
	require.Equal(t, inv.ID, o.InvoiceID)
	require.True(t, inv.Amounts.VAT.IsZero())
	require.True(t, inv.Amounts.Total.Equal(decimal.RequireFromString("40.50")), inv.Amounts.Total.String())

	converted, err := f.inquiries.Get(context.Background(), q.ID)
	require.NoError(t, err)
	require.Equal(t, dominquiry.StatusConverted, converted.Status)
	require.Equal(t, o.ID, converted.ConvertedOrderID)
	require.Equal(t, "anna", converted.Response.Actor)

	item, err := f.stock.Get(context.Background(), "soap-rose")
	require.NoError(t, err)
	require.True(t, item.Quantity.Equal(decimal.NewFromInt(96)), item.Quantity.String())

	require.Len(t, f.publisher.named("order.created"), 1)
}

func TestAcceptReplayIsGuarded(t *testing.T) {
	f := newFixture(t, nil)
	q := f.submit(t, 4)

	input := AcceptInput{InquiryID: q.ID, Actor: "anna", ConvertToOrder: true}
	first, err := f.pipeline.Accept(context.Background(), input)
	require.NoError(t, err)

	_, err = f.pipeline.Accept(context.Background(), input)
	require.ErrorIs(t, err, dominquiry.ErrAlreadyProcessed)

	// Still exactly one order and one stock deduction.
	o, err := f.orders.FindBySourceInquiry(context.Background(), q.ID)
	require.NoError(t, err)
	require.Equal(t, first.OrderID, o.ID)

	item, err := f.stock.Get(context.Background(), "soap-rose")
	require.NoError(t, err)
	require.True(t, item.Quantity.Equal(decimal.NewFromInt(96)))
	require.Len(t, f.publisher.named("order.created"), 1)
}

func TestAcceptWithoutConversion(t *testing.T) {
	f := newFixture(t, nil)
	q := f.submit(t, 4)

	result, err := f.pipeline.Accept(context.Background(), AcceptInput{
		InquiryID: q.ID,
		Message:   "reserved for you",
		Actor:     "anna",
	})
	require.NoError(t, err)
	require.Empty(t, result.OrderID)

	stored, err := f.inquiries.Get(context.Background(), q.ID)
	require.NoError(t, err)
	require.Equal(t, dominquiry.StatusAccepted, stored.Status)

	_, err = f.orders.FindBySourceInquiry(context.Background(), q.ID)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestAcceptFreeShippingAboveThreshold(t *testing.T) {
	f := newFixture(t, nil)
	q := f.submit(t, 5) // 44.50 gross

	result, err := f.pipeline.Accept(context.Background(), AcceptInput{
		InquiryID: q.ID, Actor: "anna", ConvertToOrder: true,
	})
	require.NoError(t, err)

	o, err := f.orders.Get(context.Background(), result.OrderID)
	require.NoError(t, err)
	require.True(t, o.Totals.Shipping.IsZero())
	require.True(t, o.Totals.GrandTotal.Equal(decimal.RequireFromString("44.50")), o.Totals.GrandTotal.String())
}

type failingGenerator struct{}

func (failingGenerator) ForOrder(ctx context.Context, o *order.Order) (*invoice.Invoice, error) {
	_ = ctx
	_ = o
	return nil, errors.New("renderer offline")
}

func TestAcceptSurvivesInvoiceFailure(t *testing.T) {
	f := newFixture(t, failingGenerator{})
	q := f.submit(t, 4)

	result, err := f.pipeline.Accept(context.Background(), AcceptInput{
		InquiryID: q.ID, Actor: "anna", ConvertToOrder: true,
	})
	require.NoError(t, err)
	require.Empty(t, result.InvoiceNumber)
	require.NotEmpty(t, result.Warnings)

	// The order exists and the inquiry is converted despite the failure.
	o, err := f.orders.Get(context.Background(), result.OrderID)
	require.NoError(t, err)
	require.Empty(t, o.InvoiceID)

	converted, err := f.inquiries.Get(context.Background(), q.ID)
	require.NoError(t, err)
	require.Equal(t, dominquiry.StatusConverted, converted.Status)
}

func TestRejectClosesInquiry(t *testing.T) {
	f := newFixture(t, nil)
	q := f.submit(t, 4)

	require.NoError(t, f.pipeline.Reject(context.Background(), RejectInput{
		InquiryID: q.ID,
		Message:   "out of stock for months",
		Actor:     "anna",
	}))

	stored, err := f.inquiries.Get(context.Background(), q.ID)
	require.NoError(t, err)
	require.Equal(t, dominquiry.StatusRejected, stored.Status)
	require.Equal(t, "out of stock for months", stored.Response.Message)

	err = f.pipeline.Reject(context.Background(), RejectInput{InquiryID: q.ID, Actor: "anna"})
	require.ErrorIs(t, err, dominquiry.ErrAlreadyProcessed)
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		in          string
		first, last string
	}{
		{"Lena Vogel", "Lena", "Vogel"},
		{"Lena Marie Vogel", "Lena Marie", "Vogel"},
		{"Lena", "Lena", ""},
		{"", "Customer", ""},
	}
	for _, tc := range cases {
		first, last := splitName(tc.in)
		require.Equal(t, tc.first, first, tc.in)
		require.Equal(t, tc.last, last, tc.in)
	}
}

func TestShippingPolicyCostFor(t *testing.T) {
	policy := ShippingPolicy{FreeFrom: decimal.NewFromInt(39), Fee: decimal.RequireFromString("4.90")}

	require.True(t, policy.CostFor(decimal.RequireFromString("38.99")).Equal(decimal.RequireFromString("4.90")))
	require.True(t, policy.CostFor(decimal.NewFromInt(39)).IsZero())
	require.True(t, policy.CostFor(decimal.NewFromInt(120)).IsZero())
}
