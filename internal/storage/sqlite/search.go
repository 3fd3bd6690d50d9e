package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/sandevgo/mnemo/internal/core"
)

// VecSearcher answers similarity queries over the embeddings stored alongside
// memory items. Matching is scoped to the query item's type (and chat scope
// when set) and never returns the query item itself. Similarity is cosine,
// computed in Go over the stored blobs.
type VecSearcher struct {
	db *sql.DB
}

func NewVecSearcher(db *sql.DB) *VecSearcher {
	return &VecSearcher{db: db}
}

func (s *VecSearcher) Search(ctx context.Context, item core.MemoryItem, threshold float64, topK int) ([]core.SearchMatch, error) {
	if len(item.Embedding) == 0 {
		return nil, nil
	}

	query := `SELECT id, content, type, created_at, embedding
		FROM memory_items
		WHERE status = 'active' AND type = ? AND id != ? AND embedding IS NOT NULL`
	args := []any{item.Type, item.ID}
	if item.ChatID != 0 {
		query += ` AND chat_id = ?`
		args = append(args, item.ChatID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	defer rows.Close()

	var matches []core.SearchMatch
	for rows.Next() {
		var m core.SearchMatch
		var vecBlob []byte
		if err := rows.Scan(&m.ID, &m.Content, &m.Type, &m.CreatedAt, &vecBlob); err != nil {
			return nil, fmt.Errorf("failed to scan search candidate: %w", err)
		}

		vec, err := deserializeVector(vecBlob)
		if err != nil {
			continue
		}

		m.Similarity = cosineSimilarity(item.Embedding, vec)
		if m.Similarity >= threshold {
			matches = append(matches, m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}

	return matches, nil
}
