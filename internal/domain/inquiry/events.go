package inquiry

import "time"

// ReceivedEvent announces a newly submitted inquiry. Consumed by the
// notification adapter; delivery failures never affect the submission.
type ReceivedEvent struct {
	InquiryID   string
	CustomerRef string
	OccurredAt  time.Time
}

func (ReceivedEvent) EventName() string { return "inquiry.received" }

func NewReceivedEvent(q *Inquiry) ReceivedEvent {
	return ReceivedEvent{
		InquiryID:   q.ID,
		CustomerRef: q.CustomerRef,
		OccurredAt:  time.Now().UTC(),
	}
}
