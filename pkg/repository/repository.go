package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

//go:embed schema.sql schema_postgres.sql
var schemaFS embed.FS

// ErrNotFound returned by single-record lookups when nothing matches
var ErrNotFound = errors.New("not found")

const (
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
)

// Config represents database configuration
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Repositories contains all repository instances
type Repositories struct {
	Article  *ArticleRepository
	Category *CategoryRepository
	Run      *RunRepository
	DB       *sqlx.DB
}

// NewRepositories creates all repositories with a shared database connection.
// DSN starting with postgres:// (or postgresql://) selects postgres, anything else is a sqlite DSN.
func NewRepositories(ctx context.Context, cfg Config) (*Repositories, error) {
	if cfg.DSN == "" {
		cfg.DSN = "file:plainly.db?cache=shared&mode=rwc&_txlock=immediate"
	}

	driver := driverFor(cfg.DSN)
	db, err := sqlx.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if driver == driverSQLite {
		if err := setPragmas(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if err := initSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Repositories{
		Article:  NewArticleRepository(db),
		Category: NewCategoryRepository(db),
		Run:      NewRunRepository(db),
		DB:       db,
	}, nil
}

// Store returns the combined store used by the ingester
func (r *Repositories) Store() *ArticleStore {
	return &ArticleStore{ArticleRepository: r.Article, CategoryRepository: r.Category, RunRepository: r.Run}
}

// Close closes the database connection
func (r *Repositories) Close() error {
	return r.DB.Close()
}

// Ping verifies the database connection
func (r *Repositories) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

// ArticleStore joins article, category and run repositories into a single store
type ArticleStore struct {
	*ArticleRepository
	*CategoryRepository
	*RunRepository
}

func driverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return driverPostgres
	}
	return driverSQLite
}

func setPragmas(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000", // 5 second timeout for locks
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}

// initSchema creates tables and seeds categories if they don't exist
func initSchema(ctx context.Context, db *sqlx.DB, driver string) error {
	name := "schema.sql"
	if driver == driverPostgres {
		name = "schema_postgres.sql"
	}
	schema, err := schemaFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}
