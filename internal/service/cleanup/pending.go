package cleanup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/mnemo/internal/core"
	"github.com/sandevgo/mnemo/pkg/log"
)

const pendingTTL = 24 * time.Hour

// PendingStore persists the single outstanding deletion proposal as a JSON
// file. Last writer wins: saving a new proposal silently replaces the
// previous one. There is no locking across processes; a single-operator
// deployment is assumed.
type PendingStore struct {
	path string
	now  func() time.Time
}

func NewPendingStore(path string) *PendingStore {
	return &PendingStore{path: path, now: time.Now}
}

// Save persists a new proposal with a fresh review id and a 24h TTL.
func (s *PendingStore) Save(ctx context.Context, ids []string, summary string) (*core.PendingReview, error) {
	review := &core.PendingReview{
		ReviewID:  uuid.NewString(),
		IDs:       ids,
		Count:     len(ids),
		ExpiresAt: s.now().Add(pendingTTL),
		Summary:   summary,
	}

	raw, err := json.MarshalIndent(review, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pending review: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create pending review directory: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return nil, fmt.Errorf("failed to write pending review: %w", err)
	}

	log.FromCtx(ctx).Info().
		Str("review_id", review.ReviewID).
		Int("count", review.Count).
		Msg("pending review saved")
	return review, nil
}

// Load returns the outstanding proposal, or nil when the file is absent,
// unparseable or past its TTL. An expired proposal is functionally identical
// to a skipped one.
func (s *PendingStore) Load(ctx context.Context) (*core.PendingReview, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read pending review: %w", err)
	}

	var review core.PendingReview
	if err := json.Unmarshal(raw, &review); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("pending review file is corrupt, ignoring")
		return nil, nil
	}

	if review.Expired(s.now()) {
		log.FromCtx(ctx).Info().
			Str("review_id", review.ReviewID).
			Time("expired_at", review.ExpiresAt).
			Msg("pending review expired")
		return nil, nil
	}

	return &review, nil
}

// Clear removes the outstanding proposal. Clearing when none exists is not
// an error.
func (s *PendingStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear pending review: %w", err)
	}
	log.FromCtx(ctx).Debug().Msg("pending review cleared")
	return nil
}
