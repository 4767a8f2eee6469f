package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tablecall/tablecall/internal/dependencies/clock"
	"github.com/tablecall/tablecall/internal/domain/deletion"
	"github.com/tablecall/tablecall/internal/domain/messaging"
)

// Config is fixed at construction.
type Config struct {
	Interval time.Duration
}

func DefaultConfig() Config {
	return Config{Interval: 30 * time.Second}
}

// Service retracts messages whose scheduled deletion is due.
type Service struct {
	deletions deletion.Repository
	messenger messaging.Messenger
	clock     clock.Clock
	cfg       Config
	logger    zerolog.Logger
}

// NewService creates a cleanup service.
func NewService(deletions deletion.Repository, messenger messaging.Messenger, clk clock.Clock, cfg Config, logger zerolog.Logger) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Service{
		deletions: deletions,
		messenger: messenger,
		clock:     clk,
		cfg:       cfg,
		logger:    logger.With().Str("service", "cleanup").Logger(),
	}
}

// Run executes a cycle immediately and then every interval until ctx is done.
// Cycle failures, panics included, are logged and never end the loop.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.cfg.Interval).Msg("cleanup scheduler started")
	for {
		s.safeCycle(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("cleanup scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("cleanup cycle panicked")
		}
	}()
	if _, err := s.RunCycle(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error().Err(err).Msg("cleanup cycle failed")
	}
}

// RunCycle attempts every due deletion once and then removes all of them from the store.
// It returns the number of entries processed.
func (s *Service) RunCycle(ctx context.Context) (int, error) {
	due, err := s.deletions.ListDue(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("list due deletions: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(due))
	for _, d := range due {
		ids = append(ids, d.ID)
		err := s.messenger.Delete(ctx, d.ChatID, d.MessageID)
		switch {
		case err == nil:
		case errors.Is(err, messaging.ErrMessageGone):
			s.logger.Debug().Int64("chat_id", d.ChatID).Int64("message_id", d.MessageID).Msg("message already gone")
		default:
			s.logger.Warn().Err(err).Int64("chat_id", d.ChatID).Int64("message_id", d.MessageID).Msg("failed to delete message")
		}
	}

	if err := s.deletions.DeleteBatch(ctx, ids); err != nil {
		return 0, fmt.Errorf("remove processed deletions: %w", err)
	}
	s.logger.Debug().Int("processed", len(ids)).Msg("cleanup cycle complete")
	return len(ids), nil
}
