package invoicing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/seifenwerk/orderdesk/internal/domain/invoice"
	"github.com/seifenwerk/orderdesk/internal/infrastructure/memory"
)

func seedInvoice(t *testing.T, repo *memory.InvoiceRepository, year, sequence int) *invoice.Invoice {
	t.Helper()
	inv, err := invoice.New(fmt.Sprintf("inv-%d-%d", year, sequence), "ord-1",
		invoice.Customer{Name: "Lena Vogel"},
		[]invoice.LineItem{{ProductRef: "soap-lavender", Quantity: 1, UnitPrice: decimal.RequireFromString("8.90")}},
		time.Now(), 14)
	require.NoError(t, err)
	inv.AssignNumber(year, sequence)
	require.NoError(t, repo.Insert(context.Background(), inv))
	return inv
}

func TestNextStartsAtOne(t *testing.T) {
	alloc := NewSequenceAllocator(memory.NewInvoiceRepository())

	a, err := alloc.Next(context.Background(), 2025)
	require.NoError(t, err)
	require.Equal(t, 1, a.Sequence)
	require.Equal(t, "2025-000001", a.Number)
}

func TestNextFillsGaps(t *testing.T) {
	repo := memory.NewInvoiceRepository()
	alloc := NewSequenceAllocator(repo)

	seedInvoice(t, repo, 2025, 1)
	seedInvoice(t, repo, 2025, 2)
	seedInvoice(t, repo, 2025, 4)

	a, err := alloc.Next(context.Background(), 2025)
	require.NoError(t, err)
	require.Equal(t, 3, a.Sequence)

	seedInvoice(t, repo, 2025, 3)
	a, err = alloc.Next(context.Background(), 2025)
	require.NoError(t, err)
	require.Equal(t, 5, a.Sequence)
}

func TestNextFillsHoleLeftByDeletion(t *testing.T) {
	repo := memory.NewInvoiceRepository()
	alloc := NewSequenceAllocator(repo)

	seedInvoice(t, repo, 2025, 1)
	second := seedInvoice(t, repo, 2025, 2)
	seedInvoice(t, repo, 2025, 3)

	require.NoError(t, repo.Delete(context.Background(), second.ID))

	a, err := alloc.Next(context.Background(), 2025)
	require.NoError(t, err)
	require.Equal(t, 2, a.Sequence)
}

func TestNextIsScopedPerYear(t *testing.T) {
	repo := memory.NewInvoiceRepository()
	alloc := NewSequenceAllocator(repo)

	seedInvoice(t, repo, 2024, 1)
	seedInvoice(t, repo, 2024, 2)

	a, err := alloc.Next(context.Background(), 2025)
	require.NoError(t, err)
	require.Equal(t, 1, a.Sequence)
}
