package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/tablecall/tablecall/internal/api/http"
	tgapi "github.com/tablecall/tablecall/internal/api/telegram"
	"github.com/tablecall/tablecall/internal/application/admin"
	"github.com/tablecall/tablecall/internal/application/cleanup"
	"github.com/tablecall/tablecall/internal/application/request"
	"github.com/tablecall/tablecall/internal/application/segment"
	"github.com/tablecall/tablecall/internal/application/session"
	"github.com/tablecall/tablecall/internal/config"
	"github.com/tablecall/tablecall/internal/dependencies/clock"
	domainSession "github.com/tablecall/tablecall/internal/domain/session"
	"github.com/tablecall/tablecall/internal/infrastructure/memory"
	"github.com/tablecall/tablecall/internal/infrastructure/redis"
	"github.com/tablecall/tablecall/internal/infrastructure/telegram"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot, the cleanup scheduler and the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func openSessions(cfg *config.Config, clk clock.Clock) (domainSession.Store, func(), error) {
	if cfg.SessionStore == config.SessionsRedis {
		rcfg := redis.DefaultConfig()
		rcfg.URL = cfg.RedisURL
		rcfg.SessionTTL = cfg.SessionTTL
		store, err := redis.New(rcfg, clk)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
	return memory.NewSessionStore(cfg.SessionTTL, clk), func() {}, nil
}

func serve(ctx context.Context) error {
	clk := clock.New()

	repos, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	sessions, closeSessions, err := openSessions(cfg, clk)
	if err != nil {
		return err
	}
	defer closeSessions()

	bot, err := telegram.Connect(cfg.BotToken, logger)
	if err != nil {
		return err
	}

	// services
	resolver := segment.NewResolver(repos.segments, logger)
	requestCfg := request.DefaultConfig()
	requestCfg.Moderators = cfg.Moderators
	requestCfg.BroadcastTTL = cfg.BroadcastTTL
	requestCfg.RejectionTTL = cfg.RejectionTTL
	requestCfg.Concurrency = cfg.BroadcastConcurrency
	requestCfg.DepositLink = cfg.DepositLink
	requestCfg.ContactHandle = cfg.ContactHandle
	requestSvc := request.NewService(repos.requests, repos.players, repos.catalogs, repos.deletions, resolver, bot, clk, requestCfg, logger)
	sessionSvc := session.NewService(repos.players, repos.catalogs, sessions, requestSvc, bot, cfg.ContactHandle, logger)
	adminSvc := admin.NewService(repos.players, repos.catalogs, resolver, logger)
	cleanupSvc := cleanup.NewService(repos.deletions, bot, clk, cleanup.Config{Interval: cfg.CleanupInterval}, logger)

	if len(cfg.Moderators) == 0 {
		logger.Warn().Msg("MODERATOR_IDS is empty, requests cannot be decided")
	}

	// API server
	apiServer := httpapi.NewServer(adminSvc, requestSvc, cfg.AdminTokenHash, logger)
	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server failed")
		}
	}()

	// background loops
	cleanupDone := make(chan struct{})
	go func() {
		defer close(cleanupDone)
		cleanupSvc.Run(ctx)
	}()

	updates, err := bot.Updates(ctx)
	if err != nil {
		return err
	}
	router := tgapi.NewRouter(sessionSvc, requestSvc, adminSvc, bot, tgapi.NewDispatcher(logger), logger)
	logger.Info().Msg("bot started")
	router.Run(ctx, updates)

	// graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	<-cleanupDone
	logger.Info().Msg("shutdown complete")
	return nil
}
