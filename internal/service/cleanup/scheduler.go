package cleanup

import (
	"context"
	"time"

	"github.com/sandevgo/mnemo/pkg/log"
)

const (
	defaultAutoInterval   = 24 * time.Hour
	defaultReviewInterval = 7 * 24 * time.Hour
)

// Scheduler triggers the engine on fixed intervals: the automatic path
// nightly, the human-confirmed path weekly. The engine itself knows nothing
// about scheduling.
type Scheduler struct {
	svc            *Service
	AutoInterval   time.Duration
	ReviewInterval time.Duration
}

func NewScheduler(svc *Service) *Scheduler {
	return &Scheduler{
		svc:            svc,
		AutoInterval:   defaultAutoInterval,
		ReviewInterval: defaultReviewInterval,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "cleanup_scheduler").Logger()
	logger.Info().
		Dur("auto_interval", s.AutoInterval).
		Dur("review_interval", s.ReviewInterval).
		Msg("starting cleanup scheduler")

	autoTicker := time.NewTicker(s.AutoInterval)
	defer autoTicker.Stop()
	reviewTicker := time.NewTicker(s.ReviewInterval)
	defer reviewTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down cleanup scheduler")
			return nil
		case <-autoTicker.C:
			s.svc.RunAuto(ctx)
		case <-reviewTicker.C:
			if _, err := s.svc.ProposeReview(ctx); err != nil {
				logger.Error().Err(err).Msg("review proposal failed")
			}
		}
	}
}

func (s *Scheduler) Shutdown(ctx context.Context) error {
	return nil
}
