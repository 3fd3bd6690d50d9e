package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/mnemo/internal/core"
	"github.com/sandevgo/mnemo/pkg/log"
)

type ItemsRepo struct {
	db *sql.DB
}

func NewItemsRepo(db *sql.DB) *ItemsRepo {
	return &ItemsRepo{db: db}
}

const itemColumns = `id, content, type, category, chat_id, status, confidence,
	importance, stability, access_count, last_used_at, payload, embedding, created_at`

func (r *ItemsRepo) Insert(ctx context.Context, item core.MemoryItem) error {
	var vecBlob []byte
	if len(item.Embedding) > 0 {
		var err error
		vecBlob, err = serializeVector(item.Embedding)
		if err != nil {
			return err
		}
	}

	payload := ""
	if item.Payload != nil {
		raw, err := json.Marshal(item.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal goal payload: %w", err)
		}
		payload = string(raw)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memory_items
			(id, content, type, category, chat_id, status, confidence, importance,
			 stability, access_count, last_used_at, payload, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Content, item.Type, item.Category, item.ChatID, item.Status,
		item.Confidence, item.Importance, item.Stability, item.AccessCount,
		item.LastUsedAt, payload, vecBlob, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert memory item: %w", err)
	}
	return nil
}

func (r *ItemsRepo) QueryActive(ctx context.Context, f core.ItemFilter) core.QueryResult {
	query := `SELECT ` + itemColumns + ` FROM memory_items WHERE status = 'active'`
	args := []any{}

	if f.Type != "" {
		query += ` AND type = ?`
		args = append(args, f.Type)
	}
	if f.ChatID != 0 {
		query += ` AND chat_id = ?`
		args = append(args, f.ChatID)
	}
	if !f.CreatedBefore.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, f.CreatedBefore)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return core.QueryResult{Err: fmt.Errorf("failed to query memory items: %w", err)}
	}
	defer rows.Close()

	var items []core.MemoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return core.QueryResult{Err: err}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return core.QueryResult{Err: err}
	}

	log.FromCtx(ctx).Debug().Int("count", len(items)).Msg("loaded active memory items")
	return core.QueryResult{Items: items}
}

func (r *ItemsRepo) Delete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM memory_items WHERE id IN (`+placeholders(len(ids))+`)`,
		toArgs(ids)...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete memory items: %w", err)
	}
	return res.RowsAffected()
}

func (r *ItemsRepo) SetStatus(ctx context.Context, ids []string, status core.ItemStatus) error {
	if len(ids) == 0 {
		return nil
	}

	args := append([]any{status}, toArgs(ids)...)
	_, err := r.db.ExecContext(ctx,
		`UPDATE memory_items SET status = ? WHERE id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}
	return nil
}

func (r *ItemsRepo) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE memory_items SET access_count = access_count + 1, last_used_at = ? WHERE id = ?`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch memory item: %w", err)
	}
	return nil
}

// scanItem decodes one row, parsing the goal payload exactly once at the
// store boundary. An unparseable payload degrades to freeform content.
func scanItem(rows *sql.Rows) (core.MemoryItem, error) {
	var item core.MemoryItem
	var category, payload sql.NullString
	var lastUsed sql.NullTime
	var vecBlob []byte

	if err := rows.Scan(
		&item.ID, &item.Content, &item.Type, &category, &item.ChatID, &item.Status,
		&item.Confidence, &item.Importance, &item.Stability, &item.AccessCount,
		&lastUsed, &payload, &vecBlob, &item.CreatedAt,
	); err != nil {
		return core.MemoryItem{}, fmt.Errorf("failed to scan memory item: %w", err)
	}

	item.Category = category.String
	if lastUsed.Valid {
		t := lastUsed.Time
		item.LastUsedAt = &t
	}

	if item.Type == core.TypeGoal && strings.TrimSpace(payload.String) != "" {
		var gp core.GoalPayload
		if err := json.Unmarshal([]byte(payload.String), &gp); err == nil {
			item.Payload = &gp
		}
	}

	if len(vecBlob) > 0 {
		vec, err := deserializeVector(vecBlob)
		if err != nil {
			return core.MemoryItem{}, err
		}
		item.Embedding = vec
	}

	return item, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
