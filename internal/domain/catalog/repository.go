package catalog

import "context"

// Repository defines persistence for formats, limits and their links.
type Repository interface {
	// CreateFormat inserts a format or returns the id of the existing one with the same name.
	CreateFormat(ctx context.Context, name string) (int64, error)
	CreateLimit(ctx context.Context, name string) (int64, error)
	LinkLimit(ctx context.Context, formatID, limitID int64) error
	ListFormats(ctx context.Context) ([]*Entity, error)
	ListLimitsForFormat(ctx context.Context, formatID int64) ([]*Entity, error)
	GetFormat(ctx context.Context, id int64) (*Entity, error)
	GetLimit(ctx context.Context, id int64) (*Entity, error)
}
