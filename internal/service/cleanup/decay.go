package cleanup

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sandevgo/mnemo/internal/core"
	"github.com/sandevgo/mnemo/pkg/log"
)

const (
	demotionMinAge     = 30 * 24 * time.Hour
	demotionScoreFloor = 0.05

	defaultImportance = 0.7
	defaultStability  = 0.7
)

// EffectiveScore computes the decay score of an item at the given time.
// For fixed importance, stability and access count the score strictly
// decreases as age or time-since-last-use grows.
func EffectiveScore(item core.MemoryItem, now time.Time) float64 {
	ageDays := now.Sub(item.CreatedAt).Hours() / 24

	lastUsedDays := ageDays
	if item.LastUsedAt != nil {
		lastUsedDays = now.Sub(*item.LastUsedAt).Hours() / 24
	}

	importance := item.Importance
	if importance == 0 {
		importance = defaultImportance
	}
	stability := item.Stability
	if stability == 0 {
		stability = defaultStability
	}

	ageFactor := math.Exp(-ageDays / 90)
	accessBoost := math.Min(2, 1+0.1*float64(item.AccessCount))
	recencyFactor := math.Exp(-lastUsedDays / 60)

	return importance * stability * ageFactor * accessBoost * recencyFactor
}

// DemotionResult summarizes one demotion pass.
type DemotionResult struct {
	Scanned    int
	Candidates int
	Archived   int
}

// Demoter archives items whose decay score dropped below the floor.
type Demoter struct {
	repo        core.ItemsRepository
	maxArchives int
	dryRun      bool
}

func NewDemoter(repo core.ItemsRepository, maxArchives int, dryRun bool) *Demoter {
	if maxArchives <= 0 {
		maxArchives = 100
	}
	return &Demoter{repo: repo, maxArchives: maxArchives, dryRun: dryRun}
}

// Run scans active items older than 30 days and archives those scoring
// below the floor, capped at maxArchives. Constraint-category items are
// never demoted. In dry-run candidates are counted but nothing is mutated.
func (d *Demoter) Run(ctx context.Context, now time.Time) (DemotionResult, error) {
	logger := log.FromCtx(ctx)
	result := DemotionResult{}

	res := d.repo.QueryActive(ctx, core.ItemFilter{CreatedBefore: now.Add(-demotionMinAge)})
	if res.Failed() {
		return result, fmt.Errorf("demotion query failed: %w", res.Err)
	}

	var candidates []string
	for _, item := range res.Items {
		if len(candidates) >= d.maxArchives {
			break
		}
		result.Scanned++

		if item.Category == core.CategoryConstraint {
			continue
		}
		if EffectiveScore(item, now) >= demotionScoreFloor {
			continue
		}
		candidates = append(candidates, item.ID)
	}
	result.Candidates = len(candidates)

	if d.dryRun {
		logger.Info().Int("candidates", result.Candidates).Msg("dry run: skipping archival")
		return result, nil
	}

	if len(candidates) > 0 {
		if err := d.repo.SetStatus(ctx, candidates, core.StatusArchived); err != nil {
			return result, fmt.Errorf("failed to archive items: %w", err)
		}
		result.Archived = len(candidates)
	}

	logger.Info().
		Int("scanned", result.Scanned).
		Int("archived", result.Archived).
		Msg("demotion pass complete")
	return result, nil
}
