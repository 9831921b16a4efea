package ingest

import (
	"strings"

	"github.com/umputun/plainly/pkg/domain"
)

// FallbackCategory is assigned when no rule matches
const FallbackCategory = "world"

// CategoryRule maps any of the keywords found in a lowercased title to a category slug
type CategoryRule struct {
	Keywords []string
	Slug     string
}

// DefaultCategoryRules are checked in order, the first match wins
var DefaultCategoryRules = []CategoryRule{
	{Keywords: []string{"india"}, Slug: "india"},
	{Keywords: []string{"tech", "ai"}, Slug: "technology"},
}

// Match checks if the lowercased title contains any of the rule keywords
func (r CategoryRule) Match(lowerTitle string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lowerTitle, kw) {
			return true
		}
	}
	return false
}

// ClassifyTitle returns category slug for the title
func ClassifyTitle(title string, rules []CategoryRule, fallback string) string {
	lower := strings.ToLower(title)
	for _, r := range rules {
		if r.Match(lower) {
			return r.Slug
		}
	}
	return fallback
}

// categoryID looks up the category by slug, nil if missing
func categoryID(slug string, categories []domain.Category) *int64 {
	for _, c := range categories {
		if c.Slug == slug {
			id := c.ID
			return &id
		}
	}
	return nil
}
