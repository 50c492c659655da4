package inquiry

import "context"

type Repository interface {
	Insert(ctx context.Context, q *Inquiry) error
	Get(ctx context.Context, id string) (*Inquiry, error)
	Update(ctx context.Context, q *Inquiry) error
}
