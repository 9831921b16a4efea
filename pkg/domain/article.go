package domain

import "time"

// Category represents a content category articles are assigned to
type Category struct {
	ID   int64
	Slug string
	Name string
}

// Article represents a normalized article record as stored in the article store
type Article struct {
	ID            string
	Title         string
	Slug          string
	Description   string
	Content       string
	ImageURL      *string
	Source        string // feed name
	SourceURL     string // natural key, unique
	PublishedAt   time.Time
	TrendingScore int
	CategoryID    *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FallbackImage returns the placeholder image path readers show for articles without an image
func FallbackImage(categorySlug string) string {
	switch categorySlug {
	case "technology":
		return "/images/tech-default.jpg"
	case "india":
		return "/images/india-default.jpg"
	case "world":
		return "/images/world-default.jpg"
	case "business":
		return "/images/business-default.jpg"
	default:
		return "/images/default-news.jpg"
	}
}
