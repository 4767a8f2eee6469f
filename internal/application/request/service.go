package request

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	appSegment "github.com/tablecall/tablecall/internal/application/segment"
	"github.com/tablecall/tablecall/internal/application/texts"
	"github.com/tablecall/tablecall/internal/dependencies/clock"
	"github.com/tablecall/tablecall/internal/domain/apperr"
	"github.com/tablecall/tablecall/internal/domain/catalog"
	"github.com/tablecall/tablecall/internal/domain/deletion"
	"github.com/tablecall/tablecall/internal/domain/messaging"
	"github.com/tablecall/tablecall/internal/domain/player"
	domainRequest "github.com/tablecall/tablecall/internal/domain/request"
)

// Config is fixed at construction.
type Config struct {
	// Moderators is the static allow-list of external ids.
	Moderators    []int64
	BroadcastTTL  time.Duration
	RejectionTTL  time.Duration
	Concurrency   int
	DepositLink   string
	ContactHandle string
}

func DefaultConfig() Config {
	return Config{
		BroadcastTTL: 6 * time.Hour,
		RejectionTTL: time.Hour,
		Concurrency:  8,
	}
}

// Result describes the outcome of a decision, for acknowledging the moderator.
type Result struct {
	RequestID  int64
	Decision   domainRequest.Decision
	Recipients int
	Delivered  int
	Notice     string
}

// Service creates requests, routes them to moderators and executes decisions.
type Service struct {
	requests  domainRequest.Repository
	players   player.Repository
	catalogs  catalog.Repository
	deletions deletion.Repository
	segments  *appSegment.Resolver
	messenger messaging.Messenger
	clock     clock.Clock
	cfg       Config
	logger    zerolog.Logger
}

// NewService creates a request service.
func NewService(
	requests domainRequest.Repository,
	players player.Repository,
	catalogs catalog.Repository,
	deletions deletion.Repository,
	segments *appSegment.Resolver,
	messenger messaging.Messenger,
	clk clock.Clock,
	cfg Config,
	logger zerolog.Logger,
) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Service{
		requests:  requests,
		players:   players,
		catalogs:  catalogs,
		deletions: deletions,
		segments:  segments,
		messenger: messenger,
		clock:     clk,
		cfg:       cfg,
		logger:    logger.With().Str("service", "request").Logger(),
	}
}

// IsModerator checks the static allow-list.
func (s *Service) IsModerator(externalID int64) bool {
	for _, id := range s.cfg.Moderators {
		if id == externalID {
			return true
		}
	}
	return false
}

// Submit records a request and notifies moderators. Notification failures are logged only.
func (s *Service) Submit(ctx context.Context, playerID, formatID, limitID int64) (int64, error) {
	req := domainRequest.NewRequest(playerID, formatID, limitID, s.clock.Now())
	if err := s.requests.Create(ctx, req); err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	s.logger.Info().Int64("request_id", req.ID).Int64("player_id", playerID).
		Int64("format_id", formatID).Int64("limit_id", limitID).Msg("request created")

	if _, err := s.NotifyModerators(ctx, req.ID); err != nil {
		s.logger.Error().Err(err).Int64("request_id", req.ID).Msg("failed to notify moderators")
	}
	return req.ID, nil
}

type requestView struct {
	req    *domainRequest.Request
	player *player.Player
	format *catalog.Entity
	limit  *catalog.Entity
}

// load returns a nil view when the request is gone, and complete=false when a referenced entity is.
func (s *Service) load(ctx context.Context, requestID int64) (view *requestView, complete bool, err error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, false, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, false, nil
	}
	v := &requestView{req: req}
	if v.player, err = s.players.GetByID(ctx, req.PlayerID); err != nil {
		return nil, false, fmt.Errorf("get player: %w", err)
	}
	if v.format, err = s.catalogs.GetFormat(ctx, req.FormatID); err != nil {
		return nil, false, fmt.Errorf("get format: %w", err)
	}
	if v.limit, err = s.catalogs.GetLimit(ctx, req.LimitID); err != nil {
		return nil, false, fmt.Errorf("get limit: %w", err)
	}
	return v, v.player != nil && v.format != nil && v.limit != nil, nil
}

// NotifyModerators sends the request card to every moderator and returns how many received it.
// A request with missing references is skipped silently.
func (s *Service) NotifyModerators(ctx context.Context, requestID int64) (int, error) {
	v, complete, err := s.load(ctx, requestID)
	if err != nil {
		return 0, err
	}
	if v == nil || !complete {
		s.logger.Debug().Int64("request_id", requestID).Msg("request incomplete, moderators not notified")
		return 0, nil
	}

	link := texts.PlayerLink(v.player.ContactURL(), v.player.Handle != nil && *v.player.Handle != "")
	msg := messaging.Message{
		Text: texts.ModeratorSummary(v.player.DisplayNickname(), v.format.Name, v.limit.Name, link),
		HTML: true,
		Choices: [][]messaging.Choice{{
			{Label: texts.ApproveButton, Data: messaging.ModerationData(string(domainRequest.DecisionApprove), requestID)},
			{Label: texts.RejectButton, Data: messaging.ModerationData(string(domainRequest.DecisionReject), requestID)},
		}},
	}

	delivered := 0
	for _, moderatorID := range s.cfg.Moderators {
		if _, err := s.messenger.Send(ctx, moderatorID, msg); err != nil {
			s.logger.Error().Err(err).Int64("request_id", requestID).Int64("chat_id", moderatorID).
				Msg("failed to deliver request to moderator")
			continue
		}
		delivered++
	}
	return delivered, nil
}

// Decide executes a moderator decision. Only the caller that removes the request proceeds,
// so a duplicate decision never broadcasts twice.
func (s *Service) Decide(ctx context.Context, requestID int64, decision string, actorExternalID int64) (*Result, error) {
	if !s.IsModerator(actorExternalID) {
		return nil, apperr.Unauthorized(texts.ModeratorsOnly)
	}
	log := s.logger.With().Int64("request_id", requestID).Int64("actor", actorExternalID).Logger()

	v, complete, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, apperr.NotFound(texts.RequestNotFound)
	}
	if !complete {
		log.Warn().Msg("request references missing entities, discarding")
		if _, err := s.requests.Delete(ctx, requestID); err != nil {
			log.Error().Err(err).Msg("failed to discard request")
		}
		return nil, apperr.Integrity(texts.RequestIntegrity)
	}

	d, err := domainRequest.ParseDecision(decision)
	if err != nil {
		return nil, apperr.Validation(texts.UnknownAction)
	}

	claimed, err := s.requests.Delete(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("claim request: %w", err)
	}
	if !claimed {
		return nil, apperr.NotFound(texts.RequestNotFound)
	}

	switch d {
	case domainRequest.DecisionApprove:
		return s.approve(ctx, v, log)
	default:
		return s.reject(ctx, v, log), nil
	}
}

func (s *Service) approve(ctx context.Context, v *requestView, log zerolog.Logger) (*Result, error) {
	res := &Result{RequestID: v.req.ID, Decision: domainRequest.DecisionApprove}

	seg, err := s.segments.Lookup(ctx, v.req.FormatID, v.req.LimitID)
	if err != nil {
		return nil, err
	}
	if seg == nil {
		log.Warn().Int64("format_id", v.req.FormatID).Int64("limit_id", v.req.LimitID).Msg("no segment for approved request")
		res.Notice = texts.SegmentMissing
		return res, nil
	}

	audience, err := s.segments.Audience(ctx, seg.ID, v.player.ID)
	if err != nil {
		return nil, err
	}
	res.Recipients = len(audience)
	if len(audience) == 0 {
		log.Info().Int64("segment_id", seg.ID).Msg("segment has no other members")
		res.Notice = texts.SegmentEmpty
		return res, nil
	}

	msg := messaging.Message{
		Text: texts.Broadcast(v.player.DisplayNickname(), v.format.Name, v.limit.Name, s.cfg.DepositLink),
		HTML: true,
	}
	var delivered atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, member := range audience {
		g.Go(func() error {
			if s.sendTransient(ctx, member.ExternalID, msg, s.cfg.BroadcastTTL, log) {
				delivered.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	res.Delivered = int(delivered.Load())
	res.Notice = texts.Broadcasted(res.Delivered, res.Recipients)
	log.Info().Int64("segment_id", seg.ID).Int("recipients", res.Recipients).Int("delivered", res.Delivered).Msg("request approved")
	return res, nil
}

func (s *Service) reject(ctx context.Context, v *requestView, log zerolog.Logger) *Result {
	msg := messaging.Message{Text: texts.Rejection(s.cfg.ContactHandle), Menu: true}
	delivered := s.sendTransient(ctx, v.player.ExternalID, msg, s.cfg.RejectionTTL, log)
	res := &Result{
		RequestID:  v.req.ID,
		Decision:   domainRequest.DecisionReject,
		Recipients: 1,
		Notice:     texts.RequestRejected,
	}
	if delivered {
		res.Delivered = 1
	}
	log.Info().Bool("delivered", delivered).Msg("request rejected")
	return res
}

// sendTransient sends msg and schedules its retraction ttl after the send. It reports delivery.
func (s *Service) sendTransient(ctx context.Context, chatID int64, msg messaging.Message, ttl time.Duration, log zerolog.Logger) bool {
	messageID, err := s.messenger.Send(ctx, chatID, msg)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("delivery failed")
		return false
	}
	d := deletion.NewScheduledDeletion(chatID, messageID, s.clock.Now(), ttl)
	if err := s.deletions.Schedule(ctx, d); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Int64("message_id", messageID).Msg("failed to schedule deletion")
	}
	return true
}
