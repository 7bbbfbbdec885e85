package storage // import "jobwatch.app/internal/storage"

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"jobwatch.app/internal/model"
)

// RefreshCities upserts city aggregates derived from a catalog sync. Cities
// are keyed by the lowercased, trimmed name plus country, so "Tokyo " and
// "tokyo" collapse to one row.
func (s *Storage) RefreshCities(ctx context.Context, cities model.Cities,
) error {
	if len(cities) == 0 {
		return nil
	}

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		for _, c := range cities {
			_, err := tx.Exec(ctx, `
INSERT INTO cached_cities (
  city_name,
  city_name_en,
  country_id,
  country_name,
  offer_count,
  last_seen_at
) VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (lower(btrim(city_name)), country_id) DO UPDATE SET
  city_name_en = excluded.city_name_en,
  country_name = excluded.country_name,
  offer_count = excluded.offer_count,
  last_seen_at = now()`,
				c.Name,
				c.NameEn,
				c.CountryID,
				c.CountryName,
				c.OfferCount)
			if err != nil {
				return fmt.Errorf("upsert city %q: %w", c.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: unable refresh %d cities: %w",
			len(cities), err)
	}
	return nil
}

// RemoveStaleCities deletes city aggregates that were not seen by any sync
// since the given time.
func (s *Storage) RemoveStaleCities(ctx context.Context, before time.Time,
) (int64, error) {
	result, err := s.db.Exec(ctx, `
DELETE FROM cached_cities WHERE last_seen_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("storage: remove stale cities: %w", err)
	}
	return result.RowsAffected(), nil
}

// Cities returns all known cities ordered by the number of open offers.
func (s *Storage) Cities(ctx context.Context) (model.Cities, error) {
	rows, _ := s.db.Query(ctx, `
SELECT
  id,
  city_name,
  city_name_en,
  country_id,
  country_name,
  offer_count,
  last_seen_at
FROM cached_cities
ORDER BY offer_count DESC, city_name ASC`)

	cities, err := pgx.CollectRows(rows,
		pgx.RowToAddrOfStructByName[model.City])
	if err != nil {
		return nil, fmt.Errorf("storage: unable to get cities: %w", err)
	}
	return cities, nil
}

func (s *Storage) CountCities(ctx context.Context) (int, error) {
	rows, _ := s.db.Query(ctx, `SELECT count(*) FROM cached_cities`)
	count, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("storage: count cities: %w", err)
	}
	return count, nil
}
