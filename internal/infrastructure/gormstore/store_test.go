package gormstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/seifenwerk/orderdesk/internal/domain/inquiry"
	"github.com/seifenwerk/orderdesk/internal/domain/inventory"
	"github.com/seifenwerk/orderdesk/internal/domain/invoice"
	"github.com/seifenwerk/orderdesk/internal/domain/order"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db
}

func testInvoice(t *testing.T, id string, year, sequence int) *invoice.Invoice {
	t.Helper()
	inv, err := invoice.New(id, "ord-1",
		invoice.Customer{Name: "Lena Vogel", City: "Berlin"},
		[]invoice.LineItem{{ProductRef: "soap-rose", Name: "Rose Soap Bar", Quantity: 4, UnitPrice: decimal.RequireFromString("8.90")}},
		time.Now(), 14)
	if err != nil {
		t.Fatalf("new invoice: %v", err)
	}
	inv.AssignNumber(year, sequence)
	inv.Normalize(decimal.NewFromInt(19), false)
	return inv
}

func TestInvoiceSequenceUniqueConstraint(t *testing.T) {
	repo := NewInvoiceRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, testInvoice(t, "inv-1", 2025, 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Same (year, sequence) under a different id must hit the constraint.
	dup := testInvoice(t, "inv-2", 2025, 1)
	if err := repo.Insert(ctx, dup); !errors.Is(err, invoice.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestInvoiceSequencesForYearSorted(t *testing.T) {
	repo := NewInvoiceRepository(setupTestDB(t))
	ctx := context.Background()

	for i, seq := range []int{3, 1, 5} {
		if err := repo.Insert(ctx, testInvoice(t, fmt.Sprintf("inv-%d", i), 2025, seq)); err != nil {
			t.Fatalf("insert seq %d: %v", seq, err)
		}
	}
	if err := repo.Insert(ctx, testInvoice(t, "inv-other-year", 2024, 1)); err != nil {
		t.Fatalf("insert other year: %v", err)
	}

	seqs, err := repo.SequencesForYear(ctx, 2025)
	if err != nil {
		t.Fatalf("sequences: %v", err)
	}
	want := []int{1, 3, 5}
	if len(seqs) != len(want) {
		t.Fatalf("expected %v got %v", want, seqs)
	}
	for i := range want {
		if seqs[i] != want[i] {
			t.Fatalf("expected %v got %v", want, seqs)
		}
	}
}

func TestInvoiceDeleteFreesSequence(t *testing.T) {
	repo := NewInvoiceRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, testInvoice(t, "inv-1", 2025, 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.Delete(ctx, "inv-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Insert(ctx, testInvoice(t, "inv-2", 2025, 1)); err != nil {
		t.Fatalf("reinsert freed sequence: %v", err)
	}
	if err := repo.Delete(ctx, "inv-missing"); !errors.Is(err, invoice.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestInvoiceGetByOrder(t *testing.T) {
	repo := NewInvoiceRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, testInvoice(t, "inv-1", 2025, 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	inv, err := repo.GetByOrder(ctx, "ord-1")
	if err != nil {
		t.Fatalf("get by order: %v", err)
	}
	if inv.Number != "2025-000001" {
		t.Fatalf("expected 2025-000001 got %s", inv.Number)
	}
	if _, err := repo.GetByOrder(ctx, "ord-missing"); !errors.Is(err, invoice.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func testStoredOrder(t *testing.T, id, number string) *order.Order {
	t.Helper()
	o, err := order.New(id,
		order.Buyer{FirstName: "Lena", LastName: "Vogel", Email: "lena@example.com"},
		[]order.LineItem{{
			ProductRef: "soap-rose",
			Name:       "Rose Soap Bar",
			Quantity:   4,
			UnitPrice:  decimal.RequireFromString("8.90"),
			LineTotal:  decimal.RequireFromString("35.60"),
		}},
		order.StatusConfirmed, "anna")
	if err != nil {
		t.Fatalf("new order: %v", err)
	}
	o.Number = number
	o.Totals = order.Totals{
		Subtotal: decimal.RequireFromString("29.13"),
		Shipping: decimal.RequireFromString("4.90"),
		Tax:      decimal.RequireFromString("6.47"),
	}
	o.Totals.Recalculate()
	o.Source = order.SourceInquiry
	o.SourceInquiryID = "inq-1"
	o.Payment.ProcessorOrderID = "PP-1"
	return o
}

func TestOrderRoundtrip(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()

	o := testStoredOrder(t, "ord-1", "SO-20250602-ABCDEF")
	if err := repo.Insert(ctx, o); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.Get(ctx, "ord-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Number != o.Number || got.Status != order.StatusConfirmed {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
	if len(got.History) != 1 || got.History[0].Actor != "anna" {
		t.Fatalf("history not preserved: %+v", got.History)
	}
	if !got.Totals.GrandTotal.Equal(decimal.RequireFromString("40.50")) {
		t.Fatalf("grand total mismatch: %s", got.Totals.GrandTotal)
	}
}

func TestOrderNumberUniqueConstraint(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, testStoredOrder(t, "ord-1", "SO-20250602-ABCDEF")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := repo.Insert(ctx, testStoredOrder(t, "ord-2", "SO-20250602-ABCDEF"))
	if !errors.Is(err, order.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestOrderLookupsByLink(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, testStoredOrder(t, "ord-1", "SO-20250602-ABCDEF")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	bySource, err := repo.FindBySourceInquiry(ctx, "inq-1")
	if err != nil || bySource.ID != "ord-1" {
		t.Fatalf("find by source inquiry: %v %+v", err, bySource)
	}
	byRef, err := repo.FindByProcessorRef(ctx, "PP-1")
	if err != nil || byRef.ID != "ord-1" {
		t.Fatalf("find by processor ref: %v %+v", err, byRef)
	}
	if _, err := repo.FindByProcessorRef(ctx, "PP-missing"); !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOrderUpdateRefreshesProcessorRef(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()

	o := testStoredOrder(t, "ord-1", "SO-20250602-ABCDEF")
	o.Payment.ProcessorOrderID = ""
	if err := repo.Insert(ctx, o); err != nil {
		t.Fatalf("insert: %v", err)
	}

	o.Payment.ProcessorOrderID = "PP-9"
	if err := repo.Update(ctx, o); err != nil {
		t.Fatalf("update: %v", err)
	}

	// The denormalized column must follow the payment sub-object.
	byRef, err := repo.FindByProcessorRef(ctx, "PP-9")
	if err != nil || byRef.ID != "ord-1" {
		t.Fatalf("find by processor ref after update: %v %+v", err, byRef)
	}
}

func TestInquiryRoundtrip(t *testing.T) {
	repo := NewInquiryRepository(setupTestDB(t))
	ctx := context.Background()

	q, err := inquiry.New("inq-1", "cust-1", "Lena Vogel", "lena@example.com", []inquiry.LineItem{
		{ProductRef: "soap-rose", Name: "Rose Soap Bar", Quantity: 4, UnitPrice: decimal.RequireFromString("8.90")},
	})
	if err != nil {
		t.Fatalf("new inquiry: %v", err)
	}
	q.BillingAddress = &inquiry.Address{Name: "Lena Vogel", Street: "Hauptstr. 1", City: "Berlin", PostalCode: "10115", Country: "DE"}
	if err := repo.Insert(ctx, q); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.Get(ctx, "inq-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != inquiry.StatusPending || got.BillingAddress == nil || got.BillingAddress.City != "Berlin" {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}

	if err := got.MarkConverted("ord-1"); err != nil {
		t.Fatalf("mark converted: %v", err)
	}
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, err := repo.Get(ctx, "inq-1")
	if err != nil {
		t.Fatalf("get updated: %v", err)
	}
	if updated.Status != inquiry.StatusConverted || updated.ConvertedOrderID != "ord-1" {
		t.Fatalf("update not persisted: %+v", updated)
	}
}

func TestInquiryUpdateMissing(t *testing.T) {
	repo := NewInquiryRepository(setupTestDB(t))

	q, err := inquiry.New("inq-ghost", "cust-1", "Lena", "lena@example.com", []inquiry.LineItem{
		{ProductRef: "soap-rose", Quantity: 1, UnitPrice: decimal.RequireFromString("8.90")},
	})
	if err != nil {
		t.Fatalf("new inquiry: %v", err)
	}
	if err := repo.Update(context.Background(), q); !errors.Is(err, inquiry.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStockUpsert(t *testing.T) {
	repo := NewInventoryRepository(setupTestDB(t))
	ctx := context.Background()

	item, err := inventory.NewItem("raw-olive-base", decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("new item: %v", err)
	}
	if err := repo.Save(ctx, item); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := item.Deduct(decimal.RequireFromString("7")); err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if err := repo.Save(ctx, item); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := repo.Get(ctx, "raw-olive-base")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Quantity.Equal(decimal.NewFromInt(93)) {
		t.Fatalf("expected 93 got %s", got.Quantity)
	}

	if _, err := repo.Get(ctx, "raw-missing"); !errors.Is(err, inventory.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
