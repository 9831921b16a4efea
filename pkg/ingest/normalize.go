package ingest

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/umputun/plainly/pkg/domain"
	"github.com/umputun/plainly/pkg/feed"
)

const maxSlugLen = 100

var (
	// RE2 \s is ascii-only, unicode spaces are whitespace too
	nonSlugRe = regexp.MustCompile(`[^a-z0-9\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}-]`)
	spacesRe  = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)
)

// Normalizer converts raw feed items into article records
type Normalizer struct {
	rules    []CategoryRule
	fallback string
	now      func() time.Time
}

// NewNormalizer makes a normalizer with the default category rules
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{rules: DefaultCategoryRules, fallback: FallbackCategory, now: now}
}

// Normalize builds an article record for the item. Category id is nil if the resolved
// category is not in the given set.
func (n *Normalizer) Normalize(item domain.RawItem, feedName string, categories []domain.Category) domain.Article {
	res := domain.Article{
		Title:         item.Title,
		Slug:          Slugify(item.Title),
		Description:   item.Snippet,
		Content:       item.Content,
		Source:        feedName,
		SourceURL:     item.Link,
		PublishedAt:   item.Published,
		TrendingScore: TrendingScore(item.Published, n.now()),
		CategoryID:    categoryID(ClassifyTitle(item.Title, n.rules, n.fallback), categories),
	}
	if img := feed.ExtractImage(item); img != "" {
		res.ImageURL = &img
	}
	return res
}

// Slugify makes url slug from the title: lowercase, only [a-z0-9-], whitespace runs become
// a single hyphen, at most 100 characters
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = nonSlugRe.ReplaceAllString(s, "")
	s = spacesRe.ReplaceAllString(s, "-")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	return s
}

// TrendingScore is 100 minus full hours since publication, never below 1
func TrendingScore(published, now time.Time) int {
	hours := now.Sub(published).Hours()
	score := 100 - int(math.Floor(hours))
	if score < 1 {
		return 1
	}
	return score
}

// Usable reports whether the item can form an article, it needs both a title and a link
func Usable(item domain.RawItem) bool {
	return strings.TrimSpace(item.Title) != "" && strings.TrimSpace(item.Link) != ""
}
