package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/mnemo/internal/config"
	"github.com/sandevgo/mnemo/internal/service/cleanup"
	"github.com/sandevgo/mnemo/internal/storage/sqlite"
	"github.com/sandevgo/mnemo/internal/transport/telegram"
	"github.com/sandevgo/mnemo/pkg/log"
	"github.com/sandevgo/mnemo/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	svc, cleanupDB, appCfg := newEngine(ctx)
	services = append(services, srv.NewCleanup(cleanupDB))

	// Scheduler: automatic path nightly, review path weekly
	if appCfg.EnableScheduler {
		services = append(services, cleanup.NewScheduler(svc))
	}

	// Transports
	if appCfg.IsTelegramSelected() {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, svc)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize telegram bot")
		}
		svc.SetNotifier(bot)
		services = append(services, bot)
	}

	return services
}

// newEngine wires configuration, storage and the cleanup engine. Missing
// required configuration halts here, before any side effect.
func newEngine(ctx context.Context) (*cleanup.Service, func() error, *config.AppConfig) {
	logger := log.FromCtx(ctx)

	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	appCfg := config.NewAppConfig(ctx)
	cleanupCfg := config.NewCleanupConfig(ctx)

	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	repo := sqlite.NewItemsRepo(db)
	searcher := sqlite.NewVecSearcher(db)
	pending := cleanup.NewPendingStore(appCfg.GetPendingReviewPath())

	svc := cleanup.NewService(cleanupCfg, repo, searcher, pending)
	return svc, db.Close, appCfg
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
