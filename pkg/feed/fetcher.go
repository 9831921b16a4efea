package feed

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/umputun/plainly/pkg/domain"
)

// UnavailableError is returned when a feed can't be fetched or parsed
type UnavailableError struct {
	URL string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("feed %s unavailable: %v", e.URL, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Fetcher fetches RSS/Atom feeds over HTTP and converts entries to raw items
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	strict    *bluemonday.Policy
	now       func() time.Time
}

// NewFetcher creates a new feed fetcher. The timeout bounds the whole fetch-and-parse cycle.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		timeout:   timeout,
		userAgent: userAgent,
		strict:    bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

// Fetch retrieves and parses a feed from the given URL. Any failure is reported as *UnavailableError.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]domain.RawItem, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, err := f.fetch(ctx, feedURL)
	if err != nil {
		return nil, &UnavailableError{URL: feedURL, Err: fmt.Errorf("fetch feed: %w", err)}
	}
	defer body.Close()

	parsed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, &UnavailableError{URL: feedURL, Err: fmt.Errorf("parse feed: %w", err)}
	}

	fetchedAt := f.now()
	items := make([]domain.RawItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		items = append(items, f.toRawItem(item, parsed.FeedType, fetchedAt))
	}
	return items, nil
}

// toRawItem converts a gofeed item, substituting safe defaults for missing fields
func (f *Fetcher) toRawItem(item *gofeed.Item, feedType string, fetchedAt time.Time) domain.RawItem {
	res := domain.RawItem{
		Title:     strings.TrimSpace(item.Title),
		Link:      strings.TrimSpace(item.Link),
		Content:   item.Content,
		Published: fetchedAt,
	}

	// atom puts the short text into summary, rss into description. gofeed reports the type as "rss", "atom" or "json".
	if feedType == "atom" {
		res.Summary = item.Description
	} else {
		res.Description = item.Description
	}
	if res.Content == "" {
		res.Content = item.Description
	}
	res.Snippet = f.plainText(res.Content)

	switch {
	case item.PublishedParsed != nil:
		res.Published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		res.Published = *item.UpdatedParsed
	}

	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" {
			res.Images.Enclosure = enc.URL
			break
		}
	}
	res.Images.MediaContent = mediaURLs(item.Extensions, "content")
	res.Images.MediaThumbnail = mediaURLs(item.Extensions, "thumbnail")
	return res
}

// plainText strips markup and collapses whitespace
func (f *Fetcher) plainText(s string) string {
	if s == "" {
		return ""
	}
	text := html.UnescapeString(f.strict.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

// mediaURLs collects url attributes of media:<name> elements, including the ones
// nested in media:group, and thumbnails nested in media:content
func mediaURLs(exts ext.Extensions, name string) []string {
	media, ok := exts["media"]
	if !ok {
		return nil
	}

	var res []string
	add := func(list []ext.Extension) {
		for _, e := range list {
			if u := strings.TrimSpace(e.Attrs["url"]); u != "" {
				res = append(res, u)
			}
		}
	}

	add(media[name])
	for _, group := range media["group"] {
		add(group.Children[name])
	}
	if name == "thumbnail" {
		for _, c := range media["content"] {
			add(c.Children[name])
		}
	}
	return res
}

// fetch retrieves feed body from a URL
func (f *Fetcher) fetch(ctx context.Context, feedURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	setFeedHeaders(req, f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// setFeedHeaders makes the request look like a regular feed reader, some publishers reject bare clients
func setFeedHeaders(req *http.Request, userAgent string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,text/xml;q=0.8,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
}
