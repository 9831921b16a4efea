// Package content extracts readable article text from web pages.
// It is used to fill in items which come from feeds without any content.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/time/rate"
)

// ErrTooShort returned when extracted text is shorter than the configured minimum
var ErrTooShort = errors.New("extracted text too short")

const maxPageSize = 5 * 1024 * 1024

// Options defines extractor settings
type Options struct {
	Timeout       time.Duration // per page, covers rate limit wait
	RateLimit     float64       // pages per second, 0 means unlimited
	MinTextLength int
	UserAgent     string
}

// Extractor fetches article pages and extracts the main text with trafilatura.
// Requests are rate limited across all callers, so it is safe to share between feed workers.
type Extractor struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    Options
}

// NewExtractor makes an extractor with the given options
func NewExtractor(opts Options) *Extractor {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (compatible; Plainly/1.0)"
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return &Extractor{client: &http.Client{}, limiter: limiter, opts: opts}
}

// Extract retrieves the page and returns its main text
func (e *Extractor) Extract(ctx context.Context, pageURL string) (string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("invalid url: %s", pageURL)
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	if err := e.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	setPageHeaders(req, e.opts.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, pageURL)
	}

	result, err := trafilatura.Extract(io.LimitReader(resp.Body, maxPageSize), trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		Deduplicate:     true,
		OriginalURL:     parsedURL,
	})
	if err != nil {
		return "", fmt.Errorf("extract content from %s: %w", pageURL, err)
	}
	if result == nil {
		return "", fmt.Errorf("no content extracted from %s", pageURL)
	}

	text := strings.TrimSpace(result.ContentText)
	if text == "" || len(text) < e.opts.MinTextLength {
		return "", fmt.Errorf("%s: %w (%d chars)", pageURL, ErrTooShort, len(text))
	}

	lgr.Printf("[DEBUG] extracted %d chars from %s", len(text), pageURL)
	return text, nil
}

func setPageHeaders(req *http.Request, userAgent string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
}
