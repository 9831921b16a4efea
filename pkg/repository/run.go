package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/plainly/pkg/domain"
)

// RunRepository keeps ingestion run history
type RunRepository struct {
	db *sqlx.DB
}

type runSQL struct {
	ID          string      `db:"id"`
	StartedAt   time.Time   `db:"started_at"`
	FinishedAt  time.Time   `db:"finished_at"`
	State       string      `db:"state"`
	Processed   int         `db:"processed"`
	Empty       bool        `db:"empty"`
	FailedFeeds feedNameSQL `db:"failed_feeds"`
	Deleted     int64       `db:"deleted"`
	Error       string      `db:"error"`
}

// feedNameSQL is a JSON array of feed names for SQL operations
type feedNameSQL []string

// Value implements driver.Valuer for database storage
func (f feedNameSQL) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database retrieval
func (f *feedNameSQL) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*f = feedNameSQL{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported failed_feeds type %T", value)
	}
	return json.Unmarshal(data, f)
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun stores the run summary, saving the same run again overwrites it
func (r *RunRepository) SaveRun(ctx context.Context, run domain.RunSummary) error {
	query := `
		INSERT INTO ingest_runs (id, started_at, finished_at, state, processed, empty, failed_feeds, deleted, error)
		VALUES (:id, :started_at, :finished_at, :state, :processed, :empty, :failed_feeds, :deleted, :error)
		ON CONFLICT (id) DO UPDATE SET
			finished_at = excluded.finished_at,
			state = excluded.state,
			processed = excluded.processed,
			empty = excluded.empty,
			failed_feeds = excluded.failed_feeds,
			deleted = excluded.deleted,
			error = excluded.error
	`
	row := runSQL{
		ID:          run.ID,
		StartedAt:   run.StartedAt.UTC(),
		FinishedAt:  run.FinishedAt.UTC(),
		State:       string(run.State),
		Processed:   run.Processed,
		Empty:       run.Empty,
		FailedFeeds: run.FailedFeeds,
		Deleted:     run.Deleted,
		Error:       run.Error,
	}
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// LastRun returns the most recently started run
func (r *RunRepository) LastRun(ctx context.Context) (*domain.RunSummary, error) {
	var row runSQL
	err := r.db.GetContext(ctx, &row, `SELECT id, started_at, finished_at, state, processed, empty,
		failed_feeds, deleted, error FROM ingest_runs ORDER BY started_at DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("last run: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("last run: %w", err)
	}
	return &domain.RunSummary{
		ID:          row.ID,
		StartedAt:   row.StartedAt,
		FinishedAt:  row.FinishedAt,
		State:       domain.RunState(row.State),
		Processed:   row.Processed,
		Empty:       row.Empty,
		FailedFeeds: row.FailedFeeds,
		Deleted:     row.Deleted,
		Error:       row.Error,
	}, nil
}
