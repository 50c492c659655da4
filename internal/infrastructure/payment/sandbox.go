package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	domain "github.com/seifenwerk/orderdesk/internal/domain/payment"
)

// SandboxProcessor is a deterministic stand-in for the third-party payment
// client. Every created payment can be captured exactly once; repeated
// captures return the recorded transaction, mirroring processor behavior.
type SandboxProcessor struct {
	mu       sync.Mutex
	captures map[string]domain.CaptureResult
}

func NewSandboxProcessor() *SandboxProcessor {
	return &SandboxProcessor{captures: make(map[string]domain.CaptureResult)}
}

func (p *SandboxProcessor) CreatePayment(ctx context.Context, summary domain.OrderSummary) (domain.CreateResult, error) {
	_ = ctx
	if summary.OrderID == "" {
		return domain.CreateResult{}, fmt.Errorf("sandbox: order id is required")
	}
	ref := "PP-" + uuid.NewString()

	p.mu.Lock()
	p.captures[ref] = domain.CaptureResult{}
	p.mu.Unlock()

	return domain.CreateResult{
		ProcessorOrderID: ref,
		ApprovalURL:      "https://sandbox.pay.example/approve/" + ref,
	}, nil
}

func (p *SandboxProcessor) CaptureOrder(ctx context.Context, processorOrderID string) (domain.CaptureResult, error) {
	_ = ctx

	p.mu.Lock()
	defer p.mu.Unlock()

	recorded, ok := p.captures[processorOrderID]
	if !ok {
		return domain.CaptureResult{}, fmt.Errorf("sandbox: unknown processor order %s", processorOrderID)
	}
	if recorded.Status == domain.CaptureCompleted {
		return recorded, nil
	}

	result := domain.CaptureResult{
		Status:        domain.CaptureCompleted,
		TransactionID: "TX-" + uuid.NewString(),
	}
	p.captures[processorOrderID] = result
	return result, nil
}
