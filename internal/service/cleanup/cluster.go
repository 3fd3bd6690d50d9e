package cleanup

import (
	"context"
	"sort"
	"time"

	"github.com/sandevgo/mnemo/internal/core"
	"github.com/sandevgo/mnemo/pkg/log"
)

const searchTopK = 10

// Clusterer groups near-duplicate items into keeper/duplicate clusters using
// the similarity search collaborator.
type Clusterer struct {
	searcher core.SimilaritySearcher
	timeout  time.Duration
}

func NewClusterer(searcher core.SimilaritySearcher, timeout time.Duration) *Clusterer {
	return &Clusterer{searcher: searcher, timeout: timeout}
}

// FindDuplicates runs one greedy clustering pass over the given active items.
// Items are grouped by (type, chat scope); within a group they are processed
// in creation-ascending order, so the keeper of every cluster is the oldest
// member. An item absorbed as a duplicate can never become a keeper or
// reappear in a later cluster. This does not compute transitive closure over
// the similarity graph: an item similar to two mutually-dissimilar keepers
// lands in whichever cluster forms first.
func (c *Clusterer) FindDuplicates(ctx context.Context, items []core.MemoryItem, threshold float64, minLen int) []core.DuplicateCluster {
	groups := groupByScope(items)

	var clusters []core.DuplicateCluster
	for _, group := range groups {
		clusters = append(clusters, c.clusterGroup(ctx, group, threshold, minLen)...)
	}
	return clusters
}

func (c *Clusterer) clusterGroup(ctx context.Context, items []core.MemoryItem, threshold float64, minLen int) []core.DuplicateCluster {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	byID := make(map[string]core.MemoryItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	absorbed := make(map[string]bool)
	var clusters []core.DuplicateCluster

	for _, item := range items {
		if absorbed[item.ID] {
			continue
		}
		// Too short to search meaningfully
		if len(item.Content) < minLen {
			continue
		}

		matches := c.searchSafe(ctx, item, threshold)

		var dups []core.Duplicate
		for _, m := range matches {
			if m.ID == item.ID || absorbed[m.ID] {
				continue
			}
			dup, ok := byID[m.ID]
			if !ok {
				continue
			}
			dups = append(dups, core.Duplicate{Item: dup, Similarity: m.Similarity})
		}

		if len(dups) == 0 {
			continue
		}

		for _, d := range dups {
			absorbed[d.Item.ID] = true
		}
		clusters = append(clusters, core.DuplicateCluster{Keeper: item, Duplicates: dups})
	}

	return clusters
}

// searchSafe bounds the search call with a timeout and fails open: any error
// or timeout is logged and treated as "no matches".
func (c *Clusterer) searchSafe(ctx context.Context, item core.MemoryItem, threshold float64) []core.SearchMatch {
	searchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	matches, err := c.searcher.Search(searchCtx, item, threshold, searchTopK)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("item_id", item.ID).Msg("similarity search failed, treating as no matches")
		return nil
	}
	return matches
}

func groupByScope(items []core.MemoryItem) [][]core.MemoryItem {
	type scope struct {
		itemType core.ItemType
		chatID   int64
	}

	grouped := make(map[scope][]core.MemoryItem)
	for _, item := range items {
		key := scope{itemType: item.Type, chatID: item.ChatID}
		grouped[key] = append(grouped[key], item)
	}

	// Deterministic group order
	keys := make([]scope, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.itemType != b.itemType {
			return a.itemType < b.itemType
		}
		return a.chatID < b.chatID
	})

	groups := make([][]core.MemoryItem, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, grouped[k])
	}
	return groups
}

// Records flattens clusters into audit entries for the run's report.
func Records(clusters []core.DuplicateCluster) []core.DeletionRecord {
	var records []core.DeletionRecord
	for _, cl := range clusters {
		for _, d := range cl.Duplicates {
			records = append(records, core.DeletionRecord{
				KeptID:      cl.Keeper.ID,
				DeletedID:   d.Item.ID,
				Similarity:  d.Similarity,
				KeptText:    cl.Keeper.Content,
				DeletedText: d.Item.Content,
				Type:        cl.Keeper.Type,
				ChatID:      cl.Keeper.ChatID,
			})
		}
	}
	return records
}
