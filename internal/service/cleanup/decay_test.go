package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sandevgo/mnemo/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveScoreMonotonicInAge(t *testing.T) {
	now := time.Now()
	prev := 1.0

	for _, days := range []int{31, 45, 60, 90, 180, 365} {
		item := core.MemoryItem{
			Importance:  0.7,
			Stability:   0.7,
			AccessCount: 3,
			CreatedAt:   now.AddDate(0, 0, -days),
		}
		score := EffectiveScore(item, now)
		assert.Lessf(t, score, prev, "score at %d days must be below score at previous age", days)
		prev = score
	}
}

func TestEffectiveScoreMonotonicInLastUsed(t *testing.T) {
	now := time.Now()
	created := now.AddDate(0, 0, -365)
	prev := 1.0

	for _, days := range []int{1, 10, 30, 90, 300} {
		used := now.AddDate(0, 0, -days)
		item := core.MemoryItem{
			Importance:  0.7,
			Stability:   0.7,
			AccessCount: 3,
			CreatedAt:   created,
			LastUsedAt:  &used,
		}
		score := EffectiveScore(item, now)
		assert.Less(t, score, prev)
		prev = score
	}
}

func TestEffectiveScoreNeverUsedFallsBackToAge(t *testing.T) {
	now := time.Now()
	created := now.AddDate(0, 0, -40)

	neverUsed := core.MemoryItem{Importance: 0.7, Stability: 0.7, CreatedAt: created}
	usedAtCreation := neverUsed
	usedAtCreation.LastUsedAt = &created

	assert.InDelta(t, EffectiveScore(usedAtCreation, now), EffectiveScore(neverUsed, now), 1e-9)
}

func TestEffectiveScoreDefaults(t *testing.T) {
	now := time.Now()
	zeroed := core.MemoryItem{CreatedAt: now.AddDate(0, 0, -40)}
	explicit := core.MemoryItem{Importance: 0.7, Stability: 0.7, CreatedAt: now.AddDate(0, 0, -40)}

	assert.InDelta(t, EffectiveScore(explicit, now), EffectiveScore(zeroed, now), 1e-9)
}

func TestEffectiveScoreAccessBoostCapped(t *testing.T) {
	now := time.Now()
	ten := core.MemoryItem{Importance: 0.7, Stability: 0.7, AccessCount: 10, CreatedAt: now.AddDate(0, 0, -40)}
	hundred := ten
	hundred.AccessCount = 100

	assert.InDelta(t, EffectiveScore(ten, now), EffectiveScore(hundred, now), 1e-9)
}

type mockRepo struct {
	items       []core.MemoryItem
	queryErr    error
	deleteCalls [][]string
	deleteCount int64
	deleteErr   error
	statusCalls map[core.ItemStatus][]string
	statusErr   error
}

func newMockRepo(items ...core.MemoryItem) *mockRepo {
	return &mockRepo{items: items, statusCalls: make(map[core.ItemStatus][]string)}
}

func (m *mockRepo) QueryActive(ctx context.Context, f core.ItemFilter) core.QueryResult {
	if m.queryErr != nil {
		return core.QueryResult{Err: m.queryErr}
	}
	var out []core.MemoryItem
	for _, item := range m.items {
		if f.Type != "" && item.Type != f.Type {
			continue
		}
		if !f.CreatedBefore.IsZero() && !item.CreatedAt.Before(f.CreatedBefore) {
			continue
		}
		out = append(out, item)
	}
	return core.QueryResult{Items: out}
}

func (m *mockRepo) Delete(ctx context.Context, ids []string) (int64, error) {
	m.deleteCalls = append(m.deleteCalls, ids)
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	if m.deleteCount > 0 {
		return m.deleteCount, nil
	}
	return int64(len(ids)), nil
}

func (m *mockRepo) SetStatus(ctx context.Context, ids []string, status core.ItemStatus) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	m.statusCalls[status] = append(m.statusCalls[status], ids...)
	return nil
}

func (m *mockRepo) Touch(ctx context.Context, id string, at time.Time) error {
	return nil
}

func staleItem(id string, ageDays int) core.MemoryItem {
	return core.MemoryItem{
		ID:         id,
		Content:    "stale memory item content",
		Type:       core.TypeFact,
		Status:     core.StatusActive,
		Importance: 0.7,
		Stability:  0.7,
		CreatedAt:  time.Now().AddDate(0, 0, -ageDays),
	}
}

func TestDemoterArchivesStaleItems(t *testing.T) {
	// 365 days without use pushes the score well below 0.05.
	repo := newMockRepo(staleItem("stale", 365), staleItem("fresh", 31))

	demoter := NewDemoter(repo, 100, false)
	result, err := demoter.Run(context.Background(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Archived)
	assert.Equal(t, []string{"stale"}, repo.statusCalls[core.StatusArchived])
}

func TestDemoterConstraintNeverDemoted(t *testing.T) {
	constrained := staleItem("pinned", 2000)
	constrained.Category = core.CategoryConstraint
	repo := newMockRepo(constrained)

	demoter := NewDemoter(repo, 100, false)
	result, err := demoter.Run(context.Background(), time.Now())
	require.NoError(t, err)

	assert.Zero(t, result.Candidates)
	assert.Zero(t, result.Archived)
	assert.Empty(t, repo.statusCalls[core.StatusArchived])
}

func TestDemoterRespectsMaxArchives(t *testing.T) {
	repo := newMockRepo(staleItem("a", 365), staleItem("b", 400), staleItem("c", 500))

	demoter := NewDemoter(repo, 2, false)
	result, err := demoter.Run(context.Background(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Archived)
	assert.Len(t, repo.statusCalls[core.StatusArchived], 2)
}

func TestDemoterDryRunCountsWithoutMutating(t *testing.T) {
	repo := newMockRepo(staleItem("a", 365))

	demoter := NewDemoter(repo, 100, true)
	result, err := demoter.Run(context.Background(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Candidates)
	assert.Zero(t, result.Archived)
	assert.Empty(t, repo.statusCalls[core.StatusArchived])
}

func TestDemoterQueryFailureAbortsPhase(t *testing.T) {
	repo := newMockRepo()
	repo.queryErr = errors.New("store down")

	demoter := NewDemoter(repo, 100, false)
	_, err := demoter.Run(context.Background(), time.Now())
	assert.Error(t, err)
}
