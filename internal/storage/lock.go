package storage // import "jobwatch.app/internal/storage"

import (
	"context"
	"fmt"
)

// Advisory lock keys. Each named lock guards one long running job, so two
// instances sharing the database never run the same job concurrently.
const (
	lockWorker int64 = iota + 815001
	lockSync
)

// ReleaseFunc unlocks an advisory lock and returns its connection to the
// pool.
type ReleaseFunc func(ctx context.Context) error

func (s *Storage) tryAdvisoryLock(ctx context.Context, key int64,
) (ReleaseFunc, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: acquire conn for lock: %w", err)
	}

	var locked bool
	err = conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).
		Scan(&locked)
	if err != nil {
		conn.Release()
		return nil, fmt.Errorf("storage: try advisory lock %d: %w", key, err)
	} else if !locked {
		conn.Release()
		return nil, nil
	}

	// The lock is session scoped. The connection stays pinned until the
	// returned func runs.
	release := func(ctx context.Context) error {
		defer conn.Release()
		_, err := conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, key)
		if err != nil {
			return fmt.Errorf("storage: advisory unlock %d: %w", key, err)
		}
		return nil
	}
	return release, nil
}

// TryWorkerLock acquires the lock guarding notification worker runs. It
// returns a nil release func without error when another run holds the lock.
func (s *Storage) TryWorkerLock(ctx context.Context) (ReleaseFunc, error) {
	return s.tryAdvisoryLock(ctx, lockWorker)
}

// TrySyncLock acquires the lock guarding catalog syncs. It returns a nil
// release func without error when another sync holds the lock.
func (s *Storage) TrySyncLock(ctx context.Context) (ReleaseFunc, error) {
	return s.tryAdvisoryLock(ctx, lockSync)
}
