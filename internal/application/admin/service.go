package admin

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	appSegment "github.com/tablecall/tablecall/internal/application/segment"
	"github.com/tablecall/tablecall/internal/application/texts"
	"github.com/tablecall/tablecall/internal/domain/apperr"
	"github.com/tablecall/tablecall/internal/domain/catalog"
	"github.com/tablecall/tablecall/internal/domain/player"
	"github.com/tablecall/tablecall/internal/domain/segment"
)

// PlayerInfo is a player together with its segment memberships.
type PlayerInfo struct {
	Player     *player.Player `json:"player"`
	SegmentIDs []int64        `json:"segmentIds"`
}

// Service implements moderator maintenance: bans, nicknames, catalog and segment membership.
type Service struct {
	players  player.Repository
	catalogs catalog.Repository
	segments *appSegment.Resolver
	logger   zerolog.Logger
}

// NewService creates an admin service.
func NewService(players player.Repository, catalogs catalog.Repository, segments *appSegment.Resolver, logger zerolog.Logger) *Service {
	return &Service{
		players:  players,
		catalogs: catalogs,
		segments: segments,
		logger:   logger.With().Str("service", "admin").Logger(),
	}
}

// resolve looks ident up as an internal id first, then as an external id.
func (s *Service) resolve(ctx context.Context, ident int64) (*player.Player, error) {
	p, err := s.players.GetByID(ctx, ident)
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	if p != nil {
		return p, nil
	}
	p, err = s.players.GetByExternalID(ctx, ident)
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

func (s *Service) mustResolve(ctx context.Context, ident int64) (*player.Player, error) {
	p, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound(texts.PlayerNotFound)
	}
	return p, nil
}

// Ban blocks a player. An unknown ident is taken as an external id and pre-banned.
func (s *Service) Ban(ctx context.Context, ident int64) (*player.Player, error) {
	p, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	if p == nil {
		if p, err = s.players.GetOrCreate(ctx, ident, nil); err != nil {
			return nil, fmt.Errorf("create player: %w", err)
		}
	}
	if err := s.players.SetBanned(ctx, p.ID, true); err != nil {
		return nil, fmt.Errorf("ban player: %w", err)
	}
	p.Banned = true
	s.logger.Info().Int64("player_id", p.ID).Msg("player banned")
	return p, nil
}

func (s *Service) Unban(ctx context.Context, ident int64) (*player.Player, error) {
	p, err := s.mustResolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	if err := s.players.SetBanned(ctx, p.ID, false); err != nil {
		return nil, fmt.Errorf("unban player: %w", err)
	}
	p.Banned = false
	s.logger.Info().Int64("player_id", p.ID).Msg("player unbanned")
	return p, nil
}

func (s *Service) SetNickname(ctx context.Context, ident int64, nickname string) (*player.Player, error) {
	nickname = player.NormalizeNickname(nickname)
	if err := player.ValidateNickname(nickname); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	p, err := s.mustResolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	if err := s.players.SetNickname(ctx, p.ID, nickname); err != nil {
		return nil, fmt.Errorf("set nickname: %w", err)
	}
	p.Nickname = &nickname
	return p, nil
}

func (s *Service) AddFormat(ctx context.Context, name string) (int64, error) {
	name = catalog.NormalizeName(name)
	if err := catalog.ValidateName(name); err != nil {
		return 0, apperr.Validation(err.Error())
	}
	id, err := s.catalogs.CreateFormat(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create format: %w", err)
	}
	return id, nil
}

func (s *Service) AddLimit(ctx context.Context, name string) (int64, error) {
	name = catalog.NormalizeName(name)
	if err := catalog.ValidateName(name); err != nil {
		return 0, apperr.Validation(err.Error())
	}
	id, err := s.catalogs.CreateLimit(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create limit: %w", err)
	}
	return id, nil
}

// checkPair verifies both catalog entities exist.
func (s *Service) checkPair(ctx context.Context, formatID, limitID int64) error {
	f, err := s.catalogs.GetFormat(ctx, formatID)
	if err != nil {
		return fmt.Errorf("get format: %w", err)
	}
	if f == nil {
		return apperr.NotFound(fmt.Sprintf("Format %d not found.", formatID))
	}
	l, err := s.catalogs.GetLimit(ctx, limitID)
	if err != nil {
		return fmt.Errorf("get limit: %w", err)
	}
	if l == nil {
		return apperr.NotFound(fmt.Sprintf("Limit %d not found.", limitID))
	}
	return nil
}

func (s *Service) LinkLimit(ctx context.Context, formatID, limitID int64) error {
	if err := s.checkPair(ctx, formatID, limitID); err != nil {
		return err
	}
	if err := s.catalogs.LinkLimit(ctx, formatID, limitID); err != nil {
		return fmt.Errorf("link limit: %w", err)
	}
	return nil
}

// CreateSegment resolves or creates the segment for the pair.
func (s *Service) CreateSegment(ctx context.Context, formatID, limitID int64) (int64, error) {
	if err := s.checkPair(ctx, formatID, limitID); err != nil {
		return 0, err
	}
	return s.segments.ResolveOrCreate(ctx, formatID, limitID)
}

func (s *Service) membership(ctx context.Context, ident, segmentID int64) (*player.Player, error) {
	p, err := s.mustResolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	seg, err := s.segments.Get(ctx, segmentID)
	if err != nil {
		return nil, fmt.Errorf("get segment: %w", err)
	}
	if seg == nil {
		return nil, apperr.NotFound(fmt.Sprintf("Segment %d not found.", segmentID))
	}
	return p, nil
}

func (s *Service) Assign(ctx context.Context, ident, segmentID int64) error {
	p, err := s.membership(ctx, ident, segmentID)
	if err != nil {
		return err
	}
	if err := s.segments.Assign(ctx, p.ID, segmentID); err != nil {
		return fmt.Errorf("assign segment: %w", err)
	}
	return nil
}

func (s *Service) Unassign(ctx context.Context, ident, segmentID int64) error {
	p, err := s.membership(ctx, ident, segmentID)
	if err != nil {
		return err
	}
	if err := s.segments.Unassign(ctx, p.ID, segmentID); err != nil {
		return fmt.Errorf("unassign segment: %w", err)
	}
	return nil
}

func (s *Service) PlayerInfo(ctx context.Context, ident int64) (*PlayerInfo, error) {
	p, err := s.mustResolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	ids, err := s.segments.SegmentsOf(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list player segments: %w", err)
	}
	return &PlayerInfo{Player: p, SegmentIDs: ids}, nil
}

func (s *Service) Segments(ctx context.Context) ([]*segment.Summary, error) {
	summaries, err := s.segments.Summaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	return summaries, nil
}
