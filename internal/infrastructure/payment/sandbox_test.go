package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	domain "github.com/seifenwerk/orderdesk/internal/domain/payment"
)

func TestCreateAndCapture(t *testing.T) {
	p := NewSandboxProcessor()
	ctx := context.Background()

	created, err := p.CreatePayment(ctx, domain.OrderSummary{
		OrderID:  "ord-1",
		Amount:   decimal.RequireFromString("40.50"),
		Currency: "EUR",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ProcessorOrderID)
	require.Contains(t, created.ApprovalURL, created.ProcessorOrderID)

	captured, err := p.CaptureOrder(ctx, created.ProcessorOrderID)
	require.NoError(t, err)
	require.Equal(t, domain.CaptureCompleted, captured.Status)
	require.NotEmpty(t, captured.TransactionID)
}

func TestRepeatedCaptureReturnsRecordedResult(t *testing.T) {
	p := NewSandboxProcessor()
	ctx := context.Background()

	created, err := p.CreatePayment(ctx, domain.OrderSummary{OrderID: "ord-1", Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	first, err := p.CaptureOrder(ctx, created.ProcessorOrderID)
	require.NoError(t, err)
	second, err := p.CaptureOrder(ctx, created.ProcessorOrderID)
	require.NoError(t, err)
	require.Equal(t, first.TransactionID, second.TransactionID)
}

func TestCaptureUnknownOrder(t *testing.T) {
	p := NewSandboxProcessor()
	_, err := p.CaptureOrder(context.Background(), "PP-unknown")
	require.Error(t, err)
}

func TestCreateRequiresOrderID(t *testing.T) {
	p := NewSandboxProcessor()
	_, err := p.CreatePayment(context.Background(), domain.OrderSummary{})
	require.Error(t, err)
}
