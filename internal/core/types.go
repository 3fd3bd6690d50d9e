package core

import (
	"time"
)

const (
	MnemoName          = "Mnemo"
	MnemoRepositoryURL = "https://github.com/sandevgo/mnemo"
	MnemoVersion       = "0.1.0"
)

type ItemType string

const (
	TypeFact       ItemType = "fact"
	TypeGoal       ItemType = "goal"
	TypePreference ItemType = "preference"
)

type ItemStatus string

const (
	StatusActive   ItemStatus = "active"
	StatusArchived ItemStatus = "archived"
	StatusDeleted  ItemStatus = "deleted"
)

// CategoryConstraint marks items that must never be archived automatically,
// regardless of their decay score.
const CategoryConstraint = "constraint"

// MemoryItem is a single entry in the long-term memory store.
type MemoryItem struct {
	ID          string       `json:"id"`
	Content     string       `json:"content"`
	Type        ItemType     `json:"type"`
	Category    string       `json:"category,omitempty"`
	ChatID      int64        `json:"chat_id,omitempty"`
	Status      ItemStatus   `json:"status"`
	Confidence  float64      `json:"confidence"`
	Importance  float64      `json:"importance"`
	Stability   float64      `json:"stability"`
	AccessCount int          `json:"access_count"`
	LastUsedAt  *time.Time   `json:"last_used_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Payload     *GoalPayload `json:"payload,omitempty"`
	Embedding   []float32    `json:"-"`
}

// GoalPayload is the structured form of a goal-shaped item. It is decoded
// exactly once at the store boundary; an item whose payload column does not
// parse keeps Payload == nil and is treated as freeform content.
type GoalPayload struct {
	Title    string     `json:"title"`
	Deadline *time.Time `json:"deadline,omitempty"`
	Done     bool       `json:"done"`
}

// SearchMatch is one result from the similarity search collaborator,
// scoped to the query item's type and excluding the query item itself.
type SearchMatch struct {
	ID         string
	Content    string
	Type       ItemType
	CreatedAt  time.Time
	Similarity float64
}

// Duplicate pairs an absorbed item with its similarity to the cluster keeper.
type Duplicate struct {
	Item       MemoryItem
	Similarity float64
}

// DuplicateCluster groups a keeper with the items it absorbed in one run.
// A duplicate never equals its own keeper, and duplicate-id sets are
// pairwise disjoint across all clusters of a single run.
type DuplicateCluster struct {
	Keeper     MemoryItem
	Duplicates []Duplicate
}

// DeletionRecord is an audit entry for one resolved duplicate. It lives only
// in the run's report and is never persisted.
type DeletionRecord struct {
	KeptID      string
	DeletedID   string
	Similarity  float64
	KeptText    string
	DeletedText string
	Type        ItemType
	ChatID      int64
}

// PendingReview is a durable proposal of item ids awaiting human
// confirmation. Exactly one review is outstanding per deployment; saving a
// new one fully replaces the previous record.
type PendingReview struct {
	ReviewID  string    `json:"review_id"`
	IDs       []string  `json:"ids"`
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expires_at"`
	Summary   string    `json:"summary"`
}

func (p *PendingReview) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
