package notification

import "context"

// Notifier delivers fire-and-forget operator notifications. Failures are
// logged by callers and never affect the triggering operation.
type Notifier interface {
	OrderCreated(ctx context.Context, orderID, number string) error
	InquiryReceived(ctx context.Context, inquiryID string) error
}
