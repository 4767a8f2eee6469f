package request

import "context"

// Repository defines persistence for requests.
type Repository interface {
	// Create inserts r and sets r.ID.
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id int64) (*Request, error)
	// Delete removes the request and reports whether this call removed it.
	Delete(ctx context.Context, id int64) (bool, error)
}
