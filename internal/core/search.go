package core

import "context"

// SimilaritySearcher is the semantic-search collaborator. Results are scoped
// to the query item's type (and chat scope when set) and never include the
// query item. Callers must bound each call with an explicit timeout and
// treat any error as "no matches" — a search outage degrades to "no
// duplicates found", it never aborts a cleanup run.
type SimilaritySearcher interface {
	Search(ctx context.Context, item MemoryItem, threshold float64, topK int) ([]SearchMatch, error)
}
