package cleanup

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/mnemo/internal/config"
	"github.com/sandevgo/mnemo/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	messages []string
	actions  [][]core.Action
	err      error
}

func (m *mockNotifier) Deliver(ctx context.Context, text string, actions []core.Action) error {
	m.messages = append(m.messages, text)
	m.actions = append(m.actions, actions)
	return m.err
}

func testConfig() *config.CleanupConfig {
	return &config.CleanupConfig{
		MaxDeletes:          25,
		MaxArchives:         100,
		SimilarityThreshold: 0.92,
		ReviewThreshold:     0.85,
		MinContentLength:    10,
		SearchTimeout:       time.Second,
	}
}

func testService(t *testing.T, cfg *config.CleanupConfig, repo *mockRepo, searcher *mockSearcher) *Service {
	t.Helper()
	pending := NewPendingStore(filepath.Join(t.TempDir(), "pending_review.json"))
	return NewService(cfg, repo, searcher, pending)
}

func TestCollectCandidateIDsNeverIncludesKeeper(t *testing.T) {
	clusters := []core.DuplicateCluster{{
		Keeper: core.MemoryItem{ID: "keeper"},
		Duplicates: []core.Duplicate{
			{Item: core.MemoryItem{ID: "dup1"}},
			{Item: core.MemoryItem{ID: "dup2"}},
		},
	}}
	junk := []core.MemoryItem{{ID: "keeper", Content: "fact"}}

	ids := collectCandidateIDs(junk, clusters)

	assert.NotContains(t, ids, "keeper")
	assert.ElementsMatch(t, []string{"dup1", "dup2"}, ids)
}

func TestCollectCandidateIDsIdempotentUnion(t *testing.T) {
	junk := []core.MemoryItem{{ID: "both", Content: "fact"}, {ID: "junk-only", Content: "n/a"}}
	clusters := []core.DuplicateCluster{{
		Keeper: core.MemoryItem{ID: "keeper"},
		Duplicates: []core.Duplicate{
			{Item: core.MemoryItem{ID: "both"}},
			{Item: core.MemoryItem{ID: "dup-only"}},
		},
	}}

	ids := collectCandidateIDs(junk, clusters)

	count := 0
	for _, id := range ids {
		if id == "both" {
			count++
		}
	}
	assert.Equal(t, 1, count, "an id present as junk and duplicate appears exactly once")
	assert.ElementsMatch(t, []string{"both", "junk-only", "dup-only"}, ids)
}

func TestRunAutoScenarioSingleJunkItem(t *testing.T) {
	repo := newMockRepo(core.MemoryItem{ID: "j1", Content: "fact", Type: core.TypeFact, Status: core.StatusActive, CreatedAt: time.Now()})
	svc := testService(t, testConfig(), repo, &mockSearcher{})

	result := svc.RunAuto(context.Background())

	require.Len(t, result.Junk, 1)
	assert.Equal(t, 1, result.Deleted)
	assert.Contains(t, BuildReviewSummary(result.Junk, result.Clusters), "1 junk item")
}

func TestRunAutoCapsDeletions(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDeletes = 1
	repo := newMockRepo(
		core.MemoryItem{ID: "j1", Content: "fact", Type: core.TypeFact, Status: core.StatusActive, CreatedAt: time.Now()},
		core.MemoryItem{ID: "j2", Content: "n/a", Type: core.TypeFact, Status: core.StatusActive, CreatedAt: time.Now()},
	)
	svc := testService(t, cfg, repo, &mockSearcher{})

	result := svc.RunAuto(context.Background())

	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.CappedAt)
	require.Len(t, repo.deleteCalls, 1)
	assert.Len(t, repo.deleteCalls[0], 1)
}

func TestRunAutoDryRunReportsWithoutMutating(t *testing.T) {
	cfg := testConfig()
	cfg.DryRun = true
	repo := newMockRepo(
		core.MemoryItem{ID: "j1", Content: "fact", Type: core.TypeFact, Status: core.StatusActive, CreatedAt: time.Now()},
		core.MemoryItem{ID: "j2", Content: "n/a", Type: core.TypeFact, Status: core.StatusActive, CreatedAt: time.Now()},
	)
	svc := testService(t, cfg, repo, &mockSearcher{})

	result := svc.RunAuto(context.Background())

	assert.Equal(t, 2, result.Deleted, "dry run reports the full intended count")
	assert.Empty(t, repo.deleteCalls, "dry run never touches the store")
	assert.Zero(t, result.Archived)
}

func TestRunAutoQueryFailureDegradesAndNotifies(t *testing.T) {
	repo := newMockRepo()
	repo.queryErr = errors.New("connection refused")
	notifier := &mockNotifier{}

	svc := testService(t, testConfig(), repo, &mockSearcher{})
	svc.SetNotifier(notifier)

	result := svc.RunAuto(context.Background())

	assert.True(t, result.Failed)
	assert.Zero(t, result.Deleted)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "failed")
}

func TestRunAutoPartialDeletionVisibleInAggregate(t *testing.T) {
	repo := newMockRepo(
		core.MemoryItem{ID: "j1", Content: "fact", Type: core.TypeFact, Status: core.StatusActive, CreatedAt: time.Now()},
		core.MemoryItem{ID: "j2", Content: "n/a", Type: core.TypeFact, Status: core.StatusActive, CreatedAt: time.Now()},
	)
	repo.deleteCount = 1 // the store removes fewer ids than requested

	svc := testService(t, testConfig(), repo, &mockSearcher{})
	result := svc.RunAuto(context.Background())

	assert.Equal(t, 1, result.Deleted)
}

func TestProposeReviewPersistsAndNotifies(t *testing.T) {
	repo := newMockRepo(core.MemoryItem{ID: "j1", Content: "fact", Type: core.TypeFact, Status: core.StatusActive, CreatedAt: time.Now()})
	notifier := &mockNotifier{}

	svc := testService(t, testConfig(), repo, &mockSearcher{})
	svc.SetNotifier(notifier)

	review, err := svc.ProposeReview(context.Background())
	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Equal(t, []string{"j1"}, review.IDs)
	assert.Equal(t, 1, review.Count)

	require.Len(t, notifier.actions, 1)
	actions := notifier.actions[0]
	require.Len(t, actions, 2)
	assert.Equal(t, "Confirm Delete (1 item)", actions[0].Label)
	assert.Equal(t, "Skip", actions[1].Label)
	assert.Equal(t, review.ReviewID, actions[0].Token)

	// The proposal is durable.
	loaded, err := svc.PendingStatus(context.Background())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, review.ReviewID, loaded.ReviewID)
}

func TestProposeReviewNothingToDo(t *testing.T) {
	repo := newMockRepo(core.MemoryItem{ID: "ok", Content: "User works at GovTech as an engineer", Type: core.TypeFact, Status: core.StatusActive, CreatedAt: time.Now()})
	svc := testService(t, testConfig(), repo, &mockSearcher{})

	review, err := svc.ProposeReview(context.Background())
	require.NoError(t, err)
	assert.Nil(t, review)
}

func TestProposeReviewReplacesPrevious(t *testing.T) {
	repo := newMockRepo(core.MemoryItem{ID: "j1", Content: "fact", Type: core.TypeFact, Status: core.StatusActive, CreatedAt: time.Now()})
	svc := testService(t, testConfig(), repo, &mockSearcher{})

	first, err := svc.ProposeReview(context.Background())
	require.NoError(t, err)
	second, err := svc.ProposeReview(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.ReviewID, second.ReviewID)

	// Confirming with the stale id must be rejected.
	_, err = svc.ConfirmReview(context.Background(), first.ReviewID)
	assert.ErrorIs(t, err, ErrStaleReview)
}

func TestConfirmReviewDeletesExactlyPersistedIDs(t *testing.T) {
	repo := newMockRepo(
		core.MemoryItem{ID: "j1", Content: "fact", Type: core.TypeFact, Status: core.StatusActive, CreatedAt: time.Now()},
		core.MemoryItem{ID: "j2", Content: "n/a", Type: core.TypeFact, Status: core.StatusActive, CreatedAt: time.Now()},
	)
	svc := testService(t, testConfig(), repo, &mockSearcher{})

	review, err := svc.ProposeReview(context.Background())
	require.NoError(t, err)

	deleted, err := svc.ConfirmReview(context.Background(), review.ReviewID)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	require.Len(t, repo.deleteCalls, 1)
	assert.ElementsMatch(t, review.IDs, repo.deleteCalls[0])

	// The record is cleared afterwards.
	loaded, err := svc.PendingStatus(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded)

	_, err = svc.ConfirmReview(context.Background(), review.ReviewID)
	assert.ErrorIs(t, err, ErrNoPendingReview)
}

func TestSkipReviewClearsWithoutDeleting(t *testing.T) {
	repo := newMockRepo(core.MemoryItem{ID: "j1", Content: "fact", Type: core.TypeFact, Status: core.StatusActive, CreatedAt: time.Now()})
	svc := testService(t, testConfig(), repo, &mockSearcher{})

	review, err := svc.ProposeReview(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.SkipReview(context.Background(), review.ReviewID))
	assert.Empty(t, repo.deleteCalls)

	loaded, err := svc.PendingStatus(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestReviewSummaryMentionsCounts(t *testing.T) {
	repo := newMockRepo(core.MemoryItem{ID: "j1", Content: "fact", Type: core.TypeFact, Status: core.StatusActive, CreatedAt: time.Now()})
	svc := testService(t, testConfig(), repo, &mockSearcher{})

	review, err := svc.ProposeReview(context.Background())
	require.NoError(t, err)
	require.NotNil(t, review)
	assert.True(t, strings.Contains(review.Summary, "1 junk item"))
}
