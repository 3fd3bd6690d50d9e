package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/mnemo/internal/config"
	"github.com/sandevgo/mnemo/internal/core"
	"github.com/sandevgo/mnemo/pkg/log"
)

var (
	ErrNoPendingReview = errors.New("no pending review")
	ErrStaleReview     = errors.New("review id does not match the pending review")
)

// RunResult summarizes one automatic cleanup run.
type RunResult struct {
	Junk       []core.MemoryItem
	Clusters   []core.DuplicateCluster
	Deleted    int
	Skipped    int
	CappedAt   int
	Candidates int
	Archived   int
	DryRun     bool
	Failed     bool
}

// Service is the memory deduplication and lifecycle engine. All
// collaborators are injected; the service holds no global state.
type Service struct {
	cfg       *config.CleanupConfig
	repo      core.ItemsRepository
	clusterer *Clusterer
	executor  *Executor
	pending   *PendingStore
	notifier  core.Notifier
	now       func() time.Time
}

func NewService(
	cfg *config.CleanupConfig,
	repo core.ItemsRepository,
	searcher core.SimilaritySearcher,
	pending *PendingStore,
) *Service {
	return &Service{
		cfg:       cfg,
		repo:      repo,
		clusterer: NewClusterer(searcher, cfg.SearchTimeout),
		executor:  NewExecutor(repo),
		pending:   pending,
		now:       time.Now,
	}
}

// SetNotifier attaches an optional notification collaborator. Without one
// the engine only logs.
func (s *Service) SetNotifier(n core.Notifier) {
	s.notifier = n
}

// SetDryRun overrides the configured dry-run flag, e.g. from a CLI flag.
func (s *Service) SetDryRun(v bool) {
	s.cfg.DryRun = v
}

// RunAuto executes the fully automatic cleanup path: junk + duplicate
// detection, capped deletion, then decay-based demotion. It never panics or
// returns an error out of the entry point; every failure is absorbed, logged
// and at most surfaced as a failure notification.
func (s *Service) RunAuto(ctx context.Context) *RunResult {
	logger := log.FromCtx(ctx)
	result := &RunResult{DryRun: s.cfg.DryRun, CappedAt: s.cfg.MaxDeletes}

	res := s.repo.QueryActive(ctx, core.ItemFilter{})
	if res.Failed() {
		logger.Error().Err(res.Err).Msg("item query failed, nothing to clean")
		result.Failed = true
		s.notifyFailure(ctx, res.Err)
		return result
	}

	result.Junk = FilterJunk(res.Items, s.cfg.MinContentLength)
	result.Clusters = s.clusterer.FindDuplicates(ctx, res.Items, s.cfg.SimilarityThreshold, s.cfg.MinContentLength)

	candidates := collectCandidateIDs(result.Junk, result.Clusters)
	toDelete := candidates
	if s.cfg.MaxDeletes > 0 && len(candidates) > s.cfg.MaxDeletes {
		toDelete = candidates[:s.cfg.MaxDeletes]
		result.Skipped = len(candidates) - s.cfg.MaxDeletes
	}

	deleted, err := s.executor.DeleteItems(ctx, toDelete, s.cfg.DryRun)
	if err != nil {
		logger.Error().Err(err).Msg("deletion phase failed")
		result.Failed = true
	}
	result.Deleted = deleted

	// Demotion runs even when deletion failed; a failure here aborts only
	// this phase and the dedup results above are still reported.
	demoter := NewDemoter(s.repo, s.cfg.MaxArchives, s.cfg.DryRun)
	demotion, err := demoter.Run(ctx, s.now())
	if err != nil {
		logger.Error().Err(err).Msg("demotion phase failed")
	}
	result.Candidates = demotion.Candidates
	result.Archived = demotion.Archived

	logger.Info().
		Int("junk", len(result.Junk)).
		Int("clusters", len(result.Clusters)).
		Int("deleted", result.Deleted).
		Int("skipped", result.Skipped).
		Int("archived", result.Archived).
		Bool("dry_run", result.DryRun).
		Msg("cleanup run complete")

	if s.notifier != nil {
		if err := s.notifier.Deliver(ctx, BuildOperatorReport(result), nil); err != nil {
			logger.Error().Err(err).Msg("failed to deliver cleanup report")
		}
	}

	return result
}

// ProposeReview executes the human-confirmed path: candidates are found with
// the looser review threshold, persisted as a pending review and announced
// with confirm/skip actions. Returns nil when there is nothing to review.
// A proposal fully replaces any earlier pending review.
func (s *Service) ProposeReview(ctx context.Context) (*core.PendingReview, error) {
	logger := log.FromCtx(ctx)

	res := s.repo.QueryActive(ctx, core.ItemFilter{})
	if res.Failed() {
		logger.Error().Err(res.Err).Msg("item query failed, nothing to review")
		return nil, nil
	}

	junk := FilterJunk(res.Items, s.cfg.MinContentLength)
	clusters := s.clusterer.FindDuplicates(ctx, res.Items, s.cfg.ReviewThreshold, s.cfg.MinContentLength)

	candidates := collectCandidateIDs(junk, clusters)
	if len(candidates) == 0 {
		logger.Info().Msg("nothing to review")
		return nil, nil
	}

	summary := BuildReviewSummary(junk, clusters)
	review, err := s.pending.Save(ctx, candidates, summary)
	if err != nil {
		return nil, fmt.Errorf("failed to persist review: %w", err)
	}

	if s.notifier != nil {
		actions := []core.Action{
			{Label: fmt.Sprintf("Confirm Delete (%s)", pluralize(review.Count, "item")), Token: review.ReviewID},
			{Label: "Skip", Token: review.ReviewID},
		}
		if err := s.notifier.Deliver(ctx, summary, actions); err != nil {
			logger.Error().Err(err).Msg("failed to deliver review proposal")
		}
	}

	return review, nil
}

// ConfirmReview deletes exactly the ids persisted in the pending review and
// clears the record. The review id must match the outstanding proposal; an
// expired or missing proposal yields ErrNoPendingReview.
func (s *Service) ConfirmReview(ctx context.Context, reviewID string) (int, error) {
	review, err := s.pending.Load(ctx)
	if err != nil {
		return 0, err
	}
	if review == nil {
		return 0, ErrNoPendingReview
	}
	if reviewID != "" && reviewID != review.ReviewID {
		return 0, ErrStaleReview
	}

	deleted, err := s.executor.DeleteItems(ctx, review.IDs, false)
	if err != nil {
		return 0, fmt.Errorf("confirmed deletion failed: %w", err)
	}

	if err := s.pending.Clear(ctx); err != nil {
		return deleted, err
	}

	log.FromCtx(ctx).Info().
		Str("review_id", review.ReviewID).
		Int("deleted", deleted).
		Msg("pending review confirmed")
	return deleted, nil
}

// SkipReview clears the pending review without deleting anything.
func (s *Service) SkipReview(ctx context.Context, reviewID string) error {
	review, err := s.pending.Load(ctx)
	if err != nil {
		return err
	}
	if review == nil {
		return ErrNoPendingReview
	}
	if reviewID != "" && reviewID != review.ReviewID {
		return ErrStaleReview
	}

	log.FromCtx(ctx).Info().Str("review_id", review.ReviewID).Msg("pending review skipped")
	return s.pending.Clear(ctx)
}

// PendingStatus returns the outstanding review, or nil.
func (s *Service) PendingStatus(ctx context.Context) (*core.PendingReview, error) {
	return s.pending.Load(ctx)
}

func (s *Service) notifyFailure(ctx context.Context, cause error) {
	if s.notifier == nil {
		return
	}
	msg := fmt.Sprintf("Memory cleanup failed: %v", cause)
	if err := s.notifier.Deliver(ctx, msg, nil); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to deliver failure notification")
	}
}

// collectCandidateIDs merges junk and cluster-duplicate ids into a single
// deduplicated set, preserving first-seen order. A cluster keeper is never a
// candidate, even when it also matched the junk filter; it is picked up by a
// later run once its duplicates are gone.
func collectCandidateIDs(junk []core.MemoryItem, clusters []core.DuplicateCluster) []string {
	keepers := make(map[string]bool, len(clusters))
	for _, cl := range clusters {
		keepers[cl.Keeper.ID] = true
	}

	seen := make(map[string]bool)
	var ids []string

	add := func(id string) {
		if !seen[id] && !keepers[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, item := range junk {
		add(item.ID)
	}
	for _, cl := range clusters {
		for _, d := range cl.Duplicates {
			add(d.Item.ID)
		}
	}
	return ids
}
