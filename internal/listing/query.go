package listing

import (
	"strings"

	"github.com/sentrycore/site/internal/domain"
)

// Visible returns the records whose title or summary contains query
// (case-insensitive) and whose category matches. An empty category is
// treated as domain.AllCategories. Input order is preserved.
func Visible(all []domain.Record, query, category string) []domain.Record {
	q := strings.ToLower(query)
	visible := make([]domain.Record, 0, len(all))
	for _, rec := range all {
		if !matchesCategory(rec, category) {
			continue
		}
		if !matchesQuery(rec, q) {
			continue
		}
		visible = append(visible, rec)
	}
	return visible
}

func matchesCategory(rec domain.Record, category string) bool {
	return category == "" || category == domain.AllCategories || rec.Category == category
}

func matchesQuery(rec domain.Record, lowered string) bool {
	if lowered == "" {
		return true
	}
	return strings.Contains(strings.ToLower(rec.Title), lowered) ||
		strings.Contains(strings.ToLower(rec.Summary), lowered)
}

// Categories derives the category facet of a snapshot: the "All" sentinel
// followed by every distinct non-empty category in order of first appearance.
func Categories(all []domain.Record) []string {
	seen := make(map[string]struct{})
	categories := []string{domain.AllCategories}
	for _, rec := range all {
		if rec.Category == "" {
			continue
		}
		if _, ok := seen[rec.Category]; ok {
			continue
		}
		seen[rec.Category] = struct{}{}
		categories = append(categories, rec.Category)
	}
	return categories
}
