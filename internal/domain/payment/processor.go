package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

type CaptureStatus string

const (
	CaptureCompleted CaptureStatus = "COMPLETED"
	CaptureDeclined  CaptureStatus = "DECLINED"
	CapturePending   CaptureStatus = "PENDING"
)

type OrderSummary struct {
	OrderID  string
	Amount   decimal.Decimal
	Currency string
}

type CreateResult struct {
	ProcessorOrderID string
	ApprovalURL      string
}

type CaptureResult struct {
	Status        CaptureStatus
	TransactionID string
}

// Processor is the third-party payment client. The pipeline only acts on
// captures whose status is COMPLETED.
type Processor interface {
	CreatePayment(ctx context.Context, summary OrderSummary) (CreateResult, error)
	CaptureOrder(ctx context.Context, processorOrderID string) (CaptureResult, error)
}
