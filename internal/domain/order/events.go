package order

import "time"

// CreatedEvent announces a newly persisted order. Consumed by the
// notification adapter; delivery failures never affect the pipeline.
type CreatedEvent struct {
	OrderID         string
	Number          string
	SourceInquiryID string
	OccurredAt      time.Time
}

func (CreatedEvent) EventName() string { return "order.created" }

func NewCreatedEvent(o *Order) CreatedEvent {
	return CreatedEvent{
		OrderID:         o.ID,
		Number:          o.Number,
		SourceInquiryID: o.SourceInquiryID,
		OccurredAt:      time.Now().UTC(),
	}
}
