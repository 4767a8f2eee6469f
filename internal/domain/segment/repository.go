package segment

import (
	"context"

	"github.com/tablecall/tablecall/internal/domain/player"
)

// Repository defines persistence for segments and their memberships.
type Repository interface {
	// ResolveOrCreate returns the segment id for the pair; concurrent callers converge on one row.
	ResolveOrCreate(ctx context.Context, formatID, limitID int64) (int64, error)
	GetByID(ctx context.Context, id int64) (*Segment, error)
	GetByPair(ctx context.Context, formatID, limitID int64) (*Segment, error)
	Assign(ctx context.Context, playerID, segmentID int64) error
	Unassign(ctx context.Context, playerID, segmentID int64) error
	ListForPlayer(ctx context.Context, playerID int64) ([]int64, error)
	ListMembers(ctx context.Context, segmentID, excludePlayerID int64) ([]*player.Player, error)
	ListWithNames(ctx context.Context) ([]*Summary, error)
}
