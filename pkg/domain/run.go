package domain

import "time"

// RunState represents a stage of an ingestion run
type RunState string

const (
	RunIdle              RunState = "idle"
	RunLoadingCategories RunState = "loading_categories"
	RunFetchingFeeds     RunState = "fetching_feeds"
	RunPersisting        RunState = "persisting"
	RunCleaningUp        RunState = "cleaning_up"
	RunDone              RunState = "done"
	RunFailed            RunState = "failed"
)

// RunSummary describes the outcome of a single ingestion run
type RunSummary struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	State       RunState
	Processed   int
	Empty       bool // no usable items in any feed, persistence skipped
	FailedFeeds []string
	Deleted     int64 // articles removed by the retention sweep
	Error       string
}
