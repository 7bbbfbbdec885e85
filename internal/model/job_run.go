package model // import "jobwatch.app/internal/model"

import "time"

// Job run statuses. A run starts in running state and ends in exactly one of
// the terminal states within the same invocation.
const (
	JobRunStatusRunning = "running"
	JobRunStatusSuccess = "success"
	JobRunStatusFailed  = "failed"
)

// JobRun is the audit record of one worker invocation. Rows are never
// deleted; the table is an append-only history.
type JobRun struct {
	ID         int64      `json:"id" db:"id"`
	Status     string     `json:"status" db:"status"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at" db:"finished_at"`
	Processed  int        `json:"processed" db:"processed"`
	NewOffers  int        `json:"new_offers" db:"new_offers"`
	Errors     int        `json:"errors" db:"errors"`
	Log        []string   `json:"log" db:"log"`
}

type JobRuns []*JobRun
