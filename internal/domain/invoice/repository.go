package invoice

import "context"

type Repository interface {
	// Insert fails with ErrConflict when the sequence number or invoice
	// number is already taken for the year.
	Insert(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	GetByOrder(ctx context.Context, orderID string) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	// SequencesForYear returns the allocated sequence numbers of a calendar
	// year in ascending order, for the gap-filling scan.
	SequencesForYear(ctx context.Context, year int) ([]int, error)
}
