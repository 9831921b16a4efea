package ingest

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/plainly/pkg/domain"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Hello World", "hello-world"},
		{"punctuation stripped", "Breaking: Markets fall 5%!", "breaking-markets-fall-5"},
		{"whitespace collapsed", "a  \t b\n\nc", "a-b-c"},
		{"hyphens kept", "state-of-the-art AI", "state-of-the-art-ai"},
		{"leading and trailing spaces", " padded ", "-padded-"},
		{"non-ascii dropped", "Café société", "caf-socit"},
		{"non-breaking space", "Hello\u00a0World", "hello-world"},
		{"em space", "Em\u2003space", "em-space"},
		{"vertical tab", "Tab\vhere", "tab-here"},
		{"line separator and bom", "one\u2028two\ufeffthree", "one-two-three"},
		{"mixed unicode spaces", "a \u00a0\u3000 b", "a-b"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestSlugify_Shape(t *testing.T) {
	slugRe := regexp.MustCompile(`^[a-z0-9-]*$`)
	titles := []string{
		strings.Repeat("long title words ", 20),
		"Ünïcödé — “quotes” & <tags>",
		"Tabs\tand\nnewlines",
		"12345 !@#$% abc",
		"Wide\u3000gap\u00a0and\u2009thin",
	}
	for _, title := range titles {
		slug := Slugify(title)
		assert.Regexp(t, slugRe, slug)
		assert.LessOrEqual(t, len(slug), 100)
		assert.Equal(t, slug, Slugify(title), "deterministic")
	}
	assert.Len(t, Slugify(strings.Repeat("x", 250)), 100)
}

func TestTrendingScore(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 100, TrendingScore(now, now))
	assert.Equal(t, 100, TrendingScore(now.Add(-59*time.Minute), now))
	assert.Equal(t, 99, TrendingScore(now.Add(-time.Hour), now))
	assert.Equal(t, 76, TrendingScore(now.Add(-24*time.Hour-30*time.Minute), now))
	assert.Equal(t, 1, TrendingScore(now.Add(-99*time.Hour), now))
	assert.Equal(t, 1, TrendingScore(now.Add(-150*time.Hour), now), "clamped")
	assert.Equal(t, 1, TrendingScore(now.Add(-30*24*time.Hour), now))

	prev := TrendingScore(now, now)
	for h := 0; h <= 200; h++ {
		score := TrendingScore(now.Add(-time.Duration(h)*time.Hour), now)
		assert.LessOrEqual(t, score, prev, "non-increasing at %d hours", h)
		assert.GreaterOrEqual(t, score, 1)
		prev = score
	}
}

func TestUsable(t *testing.T) {
	assert.True(t, Usable(domain.RawItem{Title: "t", Link: "https://example.com/1"}))
	assert.False(t, Usable(domain.RawItem{Title: "t"}))
	assert.False(t, Usable(domain.RawItem{Link: "https://example.com/1"}))
	assert.False(t, Usable(domain.RawItem{Title: "  ", Link: " "}))
	assert.False(t, Usable(domain.RawItem{}))
}

func TestNormalizer_Normalize(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	n := NewNormalizer(func() time.Time { return now })
	cats := []domain.Category{{ID: 1, Slug: "world"}, {ID: 2, Slug: "india"}, {ID: 3, Slug: "technology"}}

	t.Run("full item", func(t *testing.T) {
		item := domain.RawItem{
			Title:     "New AI chip unveiled",
			Snippet:   "A new chip",
			Content:   `<p>A new chip <img src="https://example.com/inline.jpg"></p>`,
			Link:      "https://example.com/ai-chip",
			Published: now.Add(-5 * time.Hour),
			Images:    domain.ImageHints{Enclosure: "https://example.com/enc.jpg"},
		}
		art := n.Normalize(item, "BBC", cats)

		assert.Equal(t, "New AI chip unveiled", art.Title)
		assert.Equal(t, "new-ai-chip-unveiled", art.Slug)
		assert.Equal(t, "A new chip", art.Description)
		assert.Equal(t, item.Content, art.Content)
		assert.Equal(t, "BBC", art.Source)
		assert.Equal(t, "https://example.com/ai-chip", art.SourceURL)
		assert.Equal(t, item.Published, art.PublishedAt)
		assert.Equal(t, 95, art.TrendingScore)
		require.NotNil(t, art.CategoryID)
		assert.Equal(t, int64(3), *art.CategoryID)
		require.NotNil(t, art.ImageURL)
		assert.Equal(t, "https://example.com/enc.jpg", *art.ImageURL)
		assert.Empty(t, art.ID, "id is assigned by the store")
	})

	t.Run("no image and no matching category", func(t *testing.T) {
		item := domain.RawItem{Title: "Generic headline", Link: "https://example.com/g", Published: now}
		art := n.Normalize(item, "NYT", []domain.Category{{ID: 2, Slug: "india"}})
		assert.Nil(t, art.ImageURL)
		assert.Nil(t, art.CategoryID, "missing world category is not an error")
		assert.Equal(t, 100, art.TrendingScore)
	})

	t.Run("india category", func(t *testing.T) {
		art := n.Normalize(domain.RawItem{Title: "India elections 2024", Link: "l", Published: now}, "BBC", cats)
		require.NotNil(t, art.CategoryID)
		assert.Equal(t, int64(2), *art.CategoryID)
	})
}
