package deletion

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"time"
)

// Repository defines persistence for scheduled deletions.
type Repository interface {
	Schedule(ctx context.Context, d *ScheduledDeletion) error
	ListDue(ctx context.Context, now time.Time) ([]*ScheduledDeletion, error)
	DeleteBatch(ctx context.Context, ids []int64) error
}
