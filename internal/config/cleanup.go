package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/mnemo/pkg/log"
)

type CleanupConfig struct {
	DryRun              bool          `env:"MNEMO_CLEANUP_DRY_RUN" envDefault:"false"`
	MaxDeletes          int           `env:"MNEMO_CLEANUP_MAX_DELETES" envDefault:"25"`
	MaxArchives         int           `env:"MNEMO_CLEANUP_MAX_ARCHIVES" envDefault:"100"`
	SimilarityThreshold float64       `env:"MNEMO_SIMILARITY_THRESHOLD" envDefault:"0.92"`
	ReviewThreshold     float64       `env:"MNEMO_REVIEW_THRESHOLD" envDefault:"0.85"`
	MinContentLength    int           `env:"MNEMO_MIN_CONTENT_LENGTH" envDefault:"10"`
	SearchTimeout       time.Duration `env:"MNEMO_SEARCH_TIMEOUT" envDefault:"5s"`
}

func NewCleanupConfig(ctx context.Context) *CleanupConfig {
	c := &CleanupConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Cleanup config")
	}
	return c
}
