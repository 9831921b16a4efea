package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/plainly/pkg/domain"
)

// ArticleRepository handles article-related database operations
type ArticleRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// articleSQL is the database representation of an article
type articleSQL struct {
	ID            string    `db:"id"`
	Title         string    `db:"title"`
	Slug          string    `db:"slug"`
	Description   string    `db:"description"`
	Content       string    `db:"content"`
	ImageURL      *string   `db:"image_url"`
	Source        string    `db:"source"`
	SourceURL     string    `db:"source_url"`
	PublishedAt   time.Time `db:"published_at"`
	TrendingScore int       `db:"trending_score"`
	CategoryID    *int64    `db:"category_id"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

const articleColumns = `id, title, slug, description, content, image_url, source, source_url,
	published_at, trending_score, category_id, created_at, updated_at`

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{db: db, now: time.Now}
}

// UpsertArticles stores the batch in a single transaction. Articles are matched by source_url,
// a match is updated in place and keeps its id and created_at.
func (r *ArticleRepository) UpsertArticles(ctx context.Context, articles []domain.Article) error {
	if len(articles) == 0 {
		return nil
	}

	query := `
		INSERT INTO articles (` + articleColumns + `)
		VALUES (
			:id, :title, :slug, :description, :content, :image_url, :source, :source_url,
			:published_at, :trending_score, :category_id, :created_at, :updated_at
		)
		ON CONFLICT (source_url) DO UPDATE SET
			title = excluded.title,
			slug = excluded.slug,
			description = excluded.description,
			content = excluded.content,
			image_url = excluded.image_url,
			source = excluded.source,
			published_at = excluded.published_at,
			trending_score = excluded.trending_score,
			category_id = excluded.category_id,
			updated_at = excluded.updated_at
	`

	now := r.now().UTC()
	rows := make([]articleSQL, len(articles))
	for i, a := range articles {
		rows[i] = toArticleSQL(a, now)
	}

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			if isLockError(err) {
				return err // retry
			}
			return &criticalError{err: fmt.Errorf("begin transaction: %w", err)}
		}
		defer tx.Rollback()

		for i := range rows {
			if _, err := tx.NamedExecContext(ctx, query, rows[i]); err != nil {
				if isLockError(err) {
					return err // retry the whole batch
				}
				return &criticalError{err: fmt.Errorf("upsert article %s: %w", rows[i].SourceURL, err)}
			}
		}

		if err := tx.Commit(); err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("commit transaction: %w", err)}
		}
		return nil
	}, errCritical)
	return unwrapCritical(err)
}

// DeleteArticlesBefore removes articles published before cutoff and returns the number removed
func (r *ArticleRepository) DeleteArticlesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM articles WHERE published_at < ?"), cutoff.UTC())
		if err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("delete articles: %w", err)}
		}
		if deleted, err = res.RowsAffected(); err != nil {
			return &criticalError{err: fmt.Errorf("get affected rows: %w", err)}
		}
		return nil
	}, errCritical)
	return deleted, unwrapCritical(err)
}

// GetArticleBySourceURL retrieves an article by its source link
func (r *ArticleRepository) GetArticleBySourceURL(ctx context.Context, sourceURL string) (*domain.Article, error) {
	query := r.db.Rebind(`SELECT ` + articleColumns + ` FROM articles WHERE source_url = ?`)
	return r.getOne(ctx, query, sourceURL)
}

// GetArticleBySlug retrieves the most recent article with the slug, slugs are not unique
func (r *ArticleRepository) GetArticleBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	query := r.db.Rebind(`SELECT ` + articleColumns + ` FROM articles
		WHERE slug = ? ORDER BY published_at DESC LIMIT 1`)
	return r.getOne(ctx, query, slug)
}

// ListArticlesByCategory returns articles of the category, highest trending score first
func (r *ArticleRepository) ListArticlesByCategory(ctx context.Context, categorySlug string, limit int) ([]domain.Article, error) {
	query := r.db.Rebind(`
		SELECT a.id, a.title, a.slug, a.description, a.content, a.image_url, a.source, a.source_url,
			a.published_at, a.trending_score, a.category_id, a.created_at, a.updated_at
		FROM articles a
		JOIN categories c ON a.category_id = c.id
		WHERE c.slug = ?
		ORDER BY a.trending_score DESC, a.published_at DESC
		LIMIT ?
	`)
	var rows []articleSQL
	if err := r.db.SelectContext(ctx, &rows, query, categorySlug, limit); err != nil {
		return nil, fmt.Errorf("list articles by category: %w", err)
	}
	return toDomainArticles(rows), nil
}

// TopArticles returns a page of articles across all categories, highest trending score first
func (r *ArticleRepository) TopArticles(ctx context.Context, offset, limit int) ([]domain.Article, error) {
	query := r.db.Rebind(`SELECT ` + articleColumns + ` FROM articles
		ORDER BY trending_score DESC, published_at DESC
		LIMIT ? OFFSET ?`)
	var rows []articleSQL
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("top articles: %w", err)
	}
	return toDomainArticles(rows), nil
}

func (r *ArticleRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Article, error) {
	var row articleSQL
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get article: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	a := row.toDomain()
	return &a, nil
}

// toArticleSQL prepares an article for insert. New ids are generated here, on conflict
// the existing row keeps its own id and created_at.
func toArticleSQL(a domain.Article, now time.Time) articleSQL {
	id := a.ID
	if id == "" {
		id = uuid.NewString()
	}
	return articleSQL{
		ID:            id,
		Title:         a.Title,
		Slug:          a.Slug,
		Description:   a.Description,
		Content:       a.Content,
		ImageURL:      a.ImageURL,
		Source:        a.Source,
		SourceURL:     a.SourceURL,
		PublishedAt:   a.PublishedAt.UTC(),
		TrendingScore: a.TrendingScore,
		CategoryID:    a.CategoryID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (a *articleSQL) toDomain() domain.Article {
	return domain.Article{
		ID:            a.ID,
		Title:         a.Title,
		Slug:          a.Slug,
		Description:   a.Description,
		Content:       a.Content,
		ImageURL:      a.ImageURL,
		Source:        a.Source,
		SourceURL:     a.SourceURL,
		PublishedAt:   a.PublishedAt,
		TrendingScore: a.TrendingScore,
		CategoryID:    a.CategoryID,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toDomainArticles(rows []articleSQL) []domain.Article {
	res := make([]domain.Article, len(rows))
	for i := range rows {
		res[i] = rows[i].toDomain()
	}
	return res
}
