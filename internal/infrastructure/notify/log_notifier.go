package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/seifenwerk/orderdesk/internal/domain/inquiry"
	"github.com/seifenwerk/orderdesk/internal/domain/notification"
	"github.com/seifenwerk/orderdesk/internal/domain/order"
	domoutbox "github.com/seifenwerk/orderdesk/internal/domain/outbox"
)

// LogNotifier is the stand-in notification channel: it records the
// notification instead of sending mail. The delivery contract stays
// fire-and-forget either way.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.L()
	}
	return &LogNotifier{log: logger.With(zap.String("component", "notifier"))}
}

func (n *LogNotifier) OrderCreated(ctx context.Context, orderID, number string) error {
	_ = ctx
	n.log.Info("notify_order_created",
		zap.String("order_id", orderID),
		zap.String("order_number", number),
	)
	return nil
}

func (n *LogNotifier) InquiryReceived(ctx context.Context, inquiryID string) error {
	_ = ctx
	n.log.Info("notify_inquiry_received", zap.String("inquiry_id", inquiryID))
	return nil
}

// Subscribe wires the notifier to the pipeline's domain events.
func Subscribe(bus domoutbox.Subscriber, n notification.Notifier) {
	bus.Subscribe(order.CreatedEvent{}.EventName(), func(ctx context.Context, e domoutbox.Event) error {
		evt, ok := e.(order.CreatedEvent)
		if !ok {
			return nil
		}
		return n.OrderCreated(ctx, evt.OrderID, evt.Number)
	})
	bus.Subscribe(inquiry.ReceivedEvent{}.EventName(), func(ctx context.Context, e domoutbox.Event) error {
		evt, ok := e.(inquiry.ReceivedEvent)
		if !ok {
			return nil
		}
		return n.InquiryReceived(ctx, evt.InquiryID)
	})
}
