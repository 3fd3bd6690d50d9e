package cleanup

import (
	"fmt"
	"strings"

	"github.com/sandevgo/mnemo/internal/core"
)

const (
	maxReportEntries = 5
	previewLength    = 60
)

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// preview truncates content for display, flattening embedded newlines.
func preview(content string, max int) string {
	flat := strings.Join(strings.Fields(content), " ")
	if len(flat) <= max {
		return flat
	}
	return flat[:max] + "…"
}

// BuildOperatorReport renders the verbose summary of one automatic run.
func BuildOperatorReport(result *RunResult) string {
	var sb strings.Builder

	sb.WriteString("**Memory Cleanup Report**\n\n")
	if result.DryRun {
		sb.WriteString("_Dry run — nothing was modified._\n\n")
	}

	sb.WriteString(fmt.Sprintf("Junk: %s\n", pluralize(len(result.Junk), "junk item")))
	sb.WriteString(fmt.Sprintf("Duplicates: %s\n", pluralize(len(result.Clusters), "cluster")))
	sb.WriteString(fmt.Sprintf("Deleted: %d", result.Deleted))
	if result.Skipped > 0 {
		sb.WriteString(fmt.Sprintf(" (skipped %d, capped at %d)", result.Skipped, result.CappedAt))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Archived: %d\n", result.Archived))

	records := Records(result.Clusters)
	if len(records) > 0 {
		sb.WriteString("\n**Resolved duplicates**\n")
		for i, rec := range records {
			if i == maxReportEntries {
				sb.WriteString(fmt.Sprintf("…and %d more\n", len(records)-maxReportEntries))
				break
			}
			sb.WriteString(fmt.Sprintf("- kept `%s` over `%s` (%.2f)\n",
				preview(rec.KeptText, previewLength),
				preview(rec.DeletedText, previewLength),
				rec.Similarity,
			))
		}
	}

	if len(result.Junk) > 0 {
		sb.WriteString("\n**Junk items**\n")
		for i, item := range result.Junk {
			if i == maxReportEntries {
				sb.WriteString(fmt.Sprintf("…and %d more\n", len(result.Junk)-maxReportEntries))
				break
			}
			sb.WriteString(fmt.Sprintf("- `%s`\n", preview(item.Content, previewLength)))
		}
	}

	return sb.String()
}

// BuildReviewSummary renders the short confirmation message attached to a
// pending review proposal.
func BuildReviewSummary(junk []core.MemoryItem, clusters []core.DuplicateCluster) string {
	var sb strings.Builder

	dups := 0
	for _, cl := range clusters {
		dups += len(cl.Duplicates)
	}

	sb.WriteString("**Memory review**\n\n")
	sb.WriteString(fmt.Sprintf("Found %s and %s (%s).\n",
		pluralize(len(junk), "junk item"),
		pluralize(len(clusters), "duplicate cluster"),
		pluralize(dups, "duplicate"),
	))

	records := Records(clusters)
	for i, rec := range records {
		if i == maxReportEntries {
			sb.WriteString(fmt.Sprintf("…and %d more\n", len(records)-maxReportEntries))
			break
		}
		sb.WriteString(fmt.Sprintf("- `%s` ≈ `%s` (%.2f)\n",
			preview(rec.KeptText, previewLength),
			preview(rec.DeletedText, previewLength),
			rec.Similarity,
		))
	}

	sb.WriteString("\nConfirm to delete, or skip to keep everything.")
	return sb.String()
}

// BuildUserNotification renders the short end-user summary of a run.
func BuildUserNotification(result *RunResult) string {
	if result.DryRun {
		return fmt.Sprintf("Memory cleanup (dry run): %s would be removed, %s would be archived.",
			pluralize(result.Deleted, "item"), pluralize(result.Candidates, "item"))
	}
	return fmt.Sprintf("Memory cleanup: removed %s, archived %s.",
		pluralize(result.Deleted, "item"), pluralize(result.Archived, "item"))
}
