package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v9"
	"github.com/sandevgo/mnemo/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"MNEMO_RUNTIME_PATH" envDefault:".mnemo"`

	// Transport Flags
	EnableTelegram  bool `env:"ENABLE_TELEGRAM" envDefault:"false"`
	EnableScheduler bool `env:"ENABLE_SCHEDULER" envDefault:"true"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "mnemo.db")
}

func (c AppConfig) GetPendingReviewPath() string {
	return filepath.Join(c.RuntimePath, "pending_review.json")
}

func (c AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}
