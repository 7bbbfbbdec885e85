package storage // import "jobwatch.app/internal/storage"

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type migration struct {
	sql    string
	txFunc func(ctx context.Context, tx pgx.Tx) error
}

func sqlMigration(s string) migration { return migration{sql: s} }

func (self *migration) Do(ctx context.Context, tx pgx.Tx) error {
	if fn := self.txFunc; fn != nil {
		if err := fn(ctx, tx); err != nil {
			return fmt.Errorf("migrate by fn: %w", err)
		}
		return nil
	}

	if _, err := tx.Exec(ctx, self.sql); err != nil {
		return fmt.Errorf("migrate by SQL: %w", err)
	}
	return nil
}

var schemaVersion = len(migrations)

//go:embed schema.sql
var fullSchema string

// Order is important. Add new migrations at the end of the list.
var migrations = []migration{
	sqlMigration(fullSchema),
}
