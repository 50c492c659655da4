package order

import (
	"errors"
	"time"
)

var ErrInvalidTransition = errors.New("order: invalid status transition")

type Status string

const (
	StatusNew           Status = "new"
	StatusConfirmed     Status = "confirmed"
	StatusPaid          Status = "paid"
	StatusPacked        Status = "packed"
	StatusShipped       Status = "shipped"
	StatusDelivered     Status = "delivered"
	StatusCancelled     Status = "cancelled"
	StatusRejected      Status = "rejected"
	StatusRefundPending Status = "refund_pending"
)

// StatusChange is one entry of the append-only audit trail.
type StatusChange struct {
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
	Note   string    `json:"note"`
	Actor  string    `json:"actor"`
}

var transitions = map[Status][]Status{
	StatusNew:           {StatusConfirmed, StatusPaid, StatusCancelled, StatusRejected},
	StatusConfirmed:     {StatusPaid, StatusPacked, StatusCancelled, StatusRejected, StatusRefundPending},
	StatusPaid:          {StatusPacked, StatusRefundPending},
	StatusPacked:        {StatusShipped, StatusRefundPending},
	StatusShipped:       {StatusDelivered, StatusRefundPending},
	StatusDelivered:     {StatusRefundPending},
	StatusCancelled:     {},
	StatusRejected:      {},
	StatusRefundPending: {StatusCancelled},
}

func (s Status) valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) canTransitionTo(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}
