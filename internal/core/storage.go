package core

import (
	"context"
	"time"
)

// ItemFilter narrows an ItemsRepository query. Zero values mean "any".
type ItemFilter struct {
	Type          ItemType
	ChatID        int64
	CreatedBefore time.Time
}

// QueryResult distinguishes "empty because no data" from "empty because the
// query failed". Callers log Err and degrade to the empty slice; downstream
// phases treat both cases identically.
type QueryResult struct {
	Items []MemoryItem
	Err   error
}

func (r QueryResult) Failed() bool { return r.Err != nil }

type ItemsRepository interface {
	// QueryActive returns active items matching the filter, oldest first.
	QueryActive(ctx context.Context, f ItemFilter) QueryResult

	// Delete removes items by id and reports how many rows the store
	// actually removed, which may be fewer than requested.
	Delete(ctx context.Context, ids []string) (int64, error)

	// SetStatus moves items to a new lifecycle status.
	SetStatus(ctx context.Context, ids []string, status ItemStatus) error

	// Touch bumps access count and last-used time for a retrieved item.
	Touch(ctx context.Context, id string, at time.Time) error
}
