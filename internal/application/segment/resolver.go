package segment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tablecall/tablecall/internal/domain/player"
	domainSegment "github.com/tablecall/tablecall/internal/domain/segment"
)

// Resolver maps (format, limit) pairs to segments and segments to their audience.
type Resolver struct {
	repo   domainSegment.Repository
	logger zerolog.Logger
}

// NewResolver creates a segment resolver.
func NewResolver(repo domainSegment.Repository, logger zerolog.Logger) *Resolver {
	return &Resolver{
		repo:   repo,
		logger: logger.With().Str("service", "segment").Logger(),
	}
}

// ResolveOrCreate returns the segment for the pair, creating it on first reference.
func (r *Resolver) ResolveOrCreate(ctx context.Context, formatID, limitID int64) (int64, error) {
	id, err := r.repo.ResolveOrCreate(ctx, formatID, limitID)
	if err != nil {
		return 0, fmt.Errorf("resolve segment (%d,%d): %w", formatID, limitID, err)
	}
	return id, nil
}

// Lookup returns the existing segment for the pair, or nil.
func (r *Resolver) Lookup(ctx context.Context, formatID, limitID int64) (*domainSegment.Segment, error) {
	seg, err := r.repo.GetByPair(ctx, formatID, limitID)
	if err != nil {
		return nil, fmt.Errorf("lookup segment (%d,%d): %w", formatID, limitID, err)
	}
	return seg, nil
}

// Get returns the segment with id, or nil.
func (r *Resolver) Get(ctx context.Context, id int64) (*domainSegment.Segment, error) {
	return r.repo.GetByID(ctx, id)
}

// Audience lists the members of a segment other than excludePlayerID.
func (r *Resolver) Audience(ctx context.Context, segmentID, excludePlayerID int64) ([]*player.Player, error) {
	members, err := r.repo.ListMembers(ctx, segmentID, excludePlayerID)
	if err != nil {
		return nil, fmt.Errorf("list members of segment %d: %w", segmentID, err)
	}
	r.logger.Debug().Int64("segment_id", segmentID).Int("members", len(members)).Msg("audience resolved")
	return members, nil
}

// Summaries lists every segment with its catalog names.
func (r *Resolver) Summaries(ctx context.Context) ([]*domainSegment.Summary, error) {
	return r.repo.ListWithNames(ctx)
}

func (r *Resolver) Assign(ctx context.Context, playerID, segmentID int64) error {
	return r.repo.Assign(ctx, playerID, segmentID)
}

func (r *Resolver) Unassign(ctx context.Context, playerID, segmentID int64) error {
	return r.repo.Unassign(ctx, playerID, segmentID)
}

func (r *Resolver) SegmentsOf(ctx context.Context, playerID int64) ([]int64, error) {
	return r.repo.ListForPlayer(ctx, playerID)
}
