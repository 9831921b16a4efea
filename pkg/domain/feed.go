package domain

import "time"

// FeedSource represents a syndication feed the pipeline pulls from
type FeedSource struct {
	Name string
	URL  string
}

// RawItem represents a single parsed feed entry before normalization
type RawItem struct {
	Title       string
	Snippet     string // plain-text rendition of the item body
	Content     string // html body, content:encoded or description
	Summary     string // atom summary, if any
	Description string // rss description, if any
	Link        string
	Published   time.Time
	Images      ImageHints
}

// ImageHints holds machine-readable image references found in a feed entry
type ImageHints struct {
	Enclosure      string
	MediaContent   []string
	MediaThumbnail []string
}
