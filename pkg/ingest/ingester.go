// Package ingest pulls configured feeds, normalizes their items into articles,
// stores them as a single batch and removes stale articles.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/plainly/pkg/domain"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher
//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store
//go:generate moq -out mocks/enricher.go -pkg mocks -skip-ensure -fmt goimports . Enricher

const (
	// MaxItemsPerFeed limits how many usable items are taken from each feed, feeds list newest first
	MaxItemsPerFeed = 10
	// RetentionPeriod defines how long articles are kept after publication
	RetentionPeriod = 7 * 24 * time.Hour
)

// DefaultFeeds is the list of sources pulled on every run
var DefaultFeeds = []domain.FeedSource{
	{Name: "BBC", URL: "https://feeds.bbci.co.uk/news/rss.xml"},
	{Name: "Reuters", URL: "https://feeds.reuters.com/reuters/topNews"},
	{Name: "NYT", URL: "https://rss.nytimes.com/services/xml/rss/nyt/HomePage.xml"},
}

var (
	// ErrCategoriesUnavailable returned when categories can't be loaded, nothing is written in this case
	ErrCategoriesUnavailable = errors.New("categories unavailable")
	// ErrPersistence returned when the article batch can't be stored
	ErrPersistence = errors.New("persistence failure")
)

// Fetcher retrieves raw items of a single feed
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]domain.RawItem, error)
}

// Store is the article storage used by the ingester
type Store interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	UpsertArticles(ctx context.Context, articles []domain.Article) error
	DeleteArticlesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	SaveRun(ctx context.Context, run domain.RunSummary) error
}

// Enricher extracts article text from its page, used for items coming without content
type Enricher interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Ingester runs the ingestion pipeline:
// loading categories, fetching feeds, persisting the batch and cleaning up stale articles.
// Category and persistence failures abort the run, feed and cleanup failures are logged and skipped.
type Ingester struct {
	fetcher    Fetcher
	store      Store
	enricher   Enricher
	normalizer *Normalizer
	feeds      []domain.FeedSource
	maxWorkers int
	now        func() time.Time
}

// Config holds ingester dependencies and settings
type Config struct {
	Fetcher    Fetcher
	Store      Store
	Enricher   Enricher // optional
	Feeds      []domain.FeedSource
	MaxWorkers int
	Now        func() time.Time
}

// New makes an ingester. Empty feed list means DefaultFeeds.
func New(cfg Config) *Ingester {
	if len(cfg.Feeds) == 0 {
		cfg.Feeds = DefaultFeeds
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = len(cfg.Feeds)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Ingester{
		fetcher:    cfg.Fetcher,
		store:      cfg.Store,
		enricher:   cfg.Enricher,
		normalizer: NewNormalizer(cfg.Now),
		feeds:      cfg.Feeds,
		maxWorkers: cfg.MaxWorkers,
		now:        cfg.Now,
	}
}

// Run performs a single ingestion pass. The returned summary is filled in for failed runs too.
func (in *Ingester) Run(ctx context.Context) (domain.RunSummary, error) {
	run := domain.RunSummary{ID: uuid.NewString(), StartedAt: in.now(), State: domain.RunIdle}
	lgr.Printf("[INFO] ingestion run %s started, %d feeds", run.ID, len(in.feeds))

	in.transition(&run, domain.RunLoadingCategories)
	categories, err := in.store.ListCategories(ctx)
	if err != nil {
		return in.fail(ctx, &run, fmt.Errorf("%w: %w", ErrCategoriesUnavailable, err))
	}
	lgr.Printf("[DEBUG] loaded %d categories", len(categories))

	in.transition(&run, domain.RunFetchingFeeds)
	articles, failed := in.fetchAll(ctx, categories)
	run.Processed = len(articles)
	run.FailedFeeds = failed

	if len(articles) == 0 {
		run.Empty = true
		lgr.Printf("[INFO] ingestion run %s found no new articles", run.ID)
		in.finish(ctx, &run, domain.RunDone)
		return run, nil
	}

	in.transition(&run, domain.RunPersisting)
	if err := in.store.UpsertArticles(ctx, articles); err != nil {
		return in.fail(ctx, &run, fmt.Errorf("%w: %w", ErrPersistence, err))
	}

	in.transition(&run, domain.RunCleaningUp)
	cutoff := in.now().Add(-RetentionPeriod)
	deleted, err := in.store.DeleteArticlesBefore(ctx, cutoff)
	if err != nil {
		lgr.Printf("[WARN] failed to delete articles published before %s: %v", cutoff.Format(time.RFC3339), err)
	} else {
		run.Deleted = deleted
	}

	in.finish(ctx, &run, domain.RunDone)
	lgr.Printf("[INFO] ingestion run %s completed, processed %d, deleted %d, failed feeds %d",
		run.ID, run.Processed, run.Deleted, len(run.FailedFeeds))
	return run, nil
}

// fetchAll fetches all feeds concurrently. Each feed fills its own slot and results are merged
// in feed order, failed feeds are reported by name.
func (in *Ingester) fetchAll(ctx context.Context, categories []domain.Category) (articles []domain.Article, failed []string) {
	slots := make([][]domain.Article, len(in.feeds))
	errs := make([]error, len(in.feeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.maxWorkers)
	for i, f := range in.feeds {
		g.Go(func() error {
			items, err := in.fetcher.Fetch(gctx, f.URL)
			if err != nil {
				errs[i] = err
				return nil
			}
			slots[i] = in.normalizeFeed(gctx, f, items, categories)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors, failures are kept per feed

	for i, f := range in.feeds {
		if errs[i] != nil {
			lgr.Printf("[WARN] feed %s skipped: %v", f.Name, errs[i])
			failed = append(failed, f.Name)
			continue
		}
		lgr.Printf("[DEBUG] feed %s gave %d articles", f.Name, len(slots[i]))
		articles = append(articles, slots[i]...)
	}
	return articles, failed
}

// normalizeFeed drops items without title or link and normalizes up to MaxItemsPerFeed of the rest
func (in *Ingester) normalizeFeed(ctx context.Context, f domain.FeedSource, items []domain.RawItem, categories []domain.Category) []domain.Article {
	res := make([]domain.Article, 0, min(len(items), MaxItemsPerFeed))
	for _, item := range items {
		if len(res) >= MaxItemsPerFeed {
			break
		}
		if !Usable(item) {
			continue
		}
		if in.enricher != nil && item.Content == "" {
			in.enrich(ctx, &item)
		}
		res = append(res, in.normalizer.Normalize(item, f.Name, categories))
	}
	return res
}

// enrich fills empty content with text extracted from the article page, errors are not fatal
func (in *Ingester) enrich(ctx context.Context, item *domain.RawItem) {
	text, err := in.enricher.Extract(ctx, item.Link)
	if err != nil {
		lgr.Printf("[DEBUG] can't enrich %s: %v", item.Link, err)
		return
	}
	item.Content = text
	if item.Snippet == "" {
		item.Snippet = text
	}
}

func (in *Ingester) transition(run *domain.RunSummary, state domain.RunState) {
	lgr.Printf("[DEBUG] ingestion run %s: %s -> %s", run.ID, run.State, state)
	run.State = state
}

// fail moves the run to failed state and records it. A run failed on categories writes nothing,
// run history included.
func (in *Ingester) fail(ctx context.Context, run *domain.RunSummary, err error) (domain.RunSummary, error) {
	lgr.Printf("[ERROR] ingestion run %s failed in %s: %v", run.ID, run.State, err)
	run.Error = err.Error()
	if run.State == domain.RunLoadingCategories {
		in.transition(run, domain.RunFailed)
		run.FinishedAt = in.now()
		return *run, err
	}
	in.finish(ctx, run, domain.RunFailed)
	return *run, err
}

// finish sets the final state and saves the run summary, saving is best-effort
func (in *Ingester) finish(ctx context.Context, run *domain.RunSummary, state domain.RunState) {
	in.transition(run, state)
	run.FinishedAt = in.now()
	if err := in.store.SaveRun(ctx, *run); err != nil {
		lgr.Printf("[WARN] failed to save ingestion run %s: %v", run.ID, err)
	}
}
