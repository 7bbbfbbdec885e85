package storage // import "jobwatch.app/internal/storage"

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"jobwatch.app/internal/model"
)

// CreateJobRun stores a new running job run and fills in the generated
// fields.
func (s *Storage) CreateJobRun(ctx context.Context, run *model.JobRun) error {
	err := s.db.QueryRow(ctx, `
INSERT INTO job_runs DEFAULT VALUES
RETURNING id, status, started_at`).
		Scan(&run.ID, &run.Status, &run.StartedAt)
	if err != nil {
		return fmt.Errorf("storage: create job run: %w", err)
	}
	return nil
}

// FinalizeJobRun stores the terminal state of a job run. A run is finalized
// exactly once, with either a success or a failed status.
func (s *Storage) FinalizeJobRun(ctx context.Context, run *model.JobRun,
) error {
	err := s.db.QueryRow(ctx, `
UPDATE job_runs
   SET status = $2,
       finished_at = now(),
       processed = $3,
       new_offers = $4,
       errors = $5,
       log = $6
 WHERE id = $1
RETURNING finished_at`,
		run.ID,
		run.Status,
		run.Processed,
		run.NewOffers,
		run.Errors,
		run.Log).
		Scan(&run.FinishedAt)
	if err != nil {
		return fmt.Errorf("storage: finalize job run #%d: %w", run.ID, err)
	}
	return nil
}

// JobRuns returns the most recent job runs, newest first.
func (s *Storage) JobRuns(ctx context.Context, limit int,
) (model.JobRuns, error) {
	rows, _ := s.db.Query(ctx, `
SELECT
  id,
  status,
  started_at,
  finished_at,
  processed,
  new_offers,
  errors,
  log
FROM job_runs
ORDER BY started_at DESC
LIMIT $1`, limit)

	runs, err := pgx.CollectRows(rows,
		pgx.RowToAddrOfStructByName[model.JobRun])
	if err != nil {
		return nil, fmt.Errorf("storage: unable to get job runs: %w", err)
	}
	return runs, nil
}

// JobRun returns one job run, or nil when it doesn't exist.
func (s *Storage) JobRun(ctx context.Context, id int64,
) (*model.JobRun, error) {
	rows, _ := s.db.Query(ctx, `
SELECT
  id,
  status,
  started_at,
  finished_at,
  processed,
  new_offers,
  errors,
  log
FROM job_runs
WHERE id = $1`, id)

	run, err := pgx.CollectExactlyOneRow(rows,
		pgx.RowToAddrOfStructByName[model.JobRun])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("storage: unable to get job run #%d: %w",
			id, err)
	}
	return run, nil
}

// CountJobRuns returns the number of job runs per status.
func (s *Storage) CountJobRuns(ctx context.Context,
) (map[string]int64, error) {
	rows, _ := s.db.Query(ctx, `
SELECT status, count(*) FROM job_runs GROUP BY status`)

	var status string
	var count int64
	counts := make(map[string]int64, 3)

	_, err := pgx.ForEachRow(rows, []any{&status, &count}, func() error {
		counts[status] = count
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: count job runs: %w", err)
	}
	return counts, nil
}
