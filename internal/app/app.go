// Package app wires every runtime collaborator together into one
// Dependencies struct, grounded on the teacher's internal/app.App /
// setupDependencies shape.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"gorm.io/gorm"

	"github.com/northlane/voicebridge/internal/callsession"
	"github.com/northlane/voicebridge/internal/campaign"
	"github.com/northlane/voicebridge/internal/carrier"
	"github.com/northlane/voicebridge/internal/config"
	"github.com/northlane/voicebridge/internal/database"
	"github.com/northlane/voicebridge/internal/hedge"
	"github.com/northlane/voicebridge/internal/ratelimit"
	"github.com/northlane/voicebridge/internal/server"
	"github.com/northlane/voicebridge/internal/store"
	"github.com/northlane/voicebridge/pkg/Logger"
)

// App owns every long-lived collaborator and the assembled server.Dependencies.
type App struct {
	Config *config.Settings
	Logger *Logger.Logger
	DB     *gorm.DB
	Redis  *redis.Client

	Dispatcher *campaign.Dispatcher
	Deps       server.Dependencies
}

// New loads configuration, opens storage, and wires every collaborator
// (spec §2: provider adapters, model gateway, audio router, hedge engine,
// call FSM, campaign dispatcher, rate limiter all share one process).
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("app: load config: %w", err)
	}

	logger := Logger.New(cfg.Debug)

	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("app: init db: %w", err)
	}
	if err := database.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("app: migrate db: %w", err)
	}

	rc, err := database.NewRedis(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("app: init redis: %w", err)
	}

	agentStore := store.NewGormAgentConfigStore(db)
	callStore := store.NewGormCallStore(db)
	campaignStore := store.NewGormCampaignStore(db)
	leadStore := store.NewGormLeadStore(db)

	limiter := ratelimit.New(rc, cfg.RateLimit.CallsPerMinute, time.Duration(cfg.RateLimit.WindowMs)*time.Millisecond)

	clips, err := hedge.LoadClipsFromDir(cfg.FillerDir)
	if err != nil {
		logger.Warnf("app: filler clip load failed, continuing without fillers: %v", err)
		clips = nil
	}
	fillers := hedge.NewLibrary(clips)

	initiatorA := carrier.NewInitiator(
		carrier.OutboundConfig{CallAPI: cfg.CarrierA.CallAPI, AccountID: cfg.CarrierA.AccountID, AuthToken: cfg.CarrierA.AuthToken},
		cfg.PublicBaseURL+"/twilio/status",
	)

	dispatcher := campaign.New(
		campaign.Config{RedisAddr: cfg.Redis.Addr, RedisPassword: cfg.Redis.Pass, RedisDB: cfg.Redis.DB},
		campaignStore,
		leadStore,
		limiter,
		initiatorA,
		logger,
	)

	deps := server.Dependencies{
		Config:        cfg,
		Logger:        logger,
		Limiter:       limiter,
		Sessions:      callsession.NewRegistry(),
		Pending:       callsession.NewPendingRegistry(),
		Fillers:       fillers,
		AgentStore:    agentStore,
		CallStore:     callStore,
		CampaignStore: campaignStore,
		LeadStore:     leadStore,
		Dispatcher:    dispatcher,
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Redis:      rc,
		Dispatcher: dispatcher,
		Deps:       deps,
	}, nil
}

// Run starts the campaign dispatcher's asynq worker loop; it blocks until
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.Dispatcher.Run(ctx)
}
