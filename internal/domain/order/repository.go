package order

import "context"

type Repository interface {
	// Insert fails with ErrConflict when the id or the order number is
	// already taken; callers retry with a fresh number.
	Insert(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	// FindBySourceInquiry supports repairing a missing convertedOrderId link.
	FindBySourceInquiry(ctx context.Context, inquiryID string) (*Order, error)
	// FindByProcessorRef resolves payment-capture callbacks that only carry
	// the processor's order id.
	FindByProcessorRef(ctx context.Context, processorOrderID string) (*Order, error)
}
