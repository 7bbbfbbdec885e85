package storage // import "jobwatch.app/internal/storage"

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"jobwatch.app/internal/model"
)

// CacheRefreshed summarizes what one batch of upstream offers changed in the
// offer cache.
type CacheRefreshed struct {
	Created int
	Updated int
}

func (self *CacheRefreshed) Add(r CacheRefreshed) {
	self.Created += r.Created
	self.Updated += r.Updated
}

// RefreshOffers upserts a batch of normalized upstream offers into the
// cache. Offers whose payload hash is unchanged are left untouched, so a
// sync of an unchanged catalog does not rewrite every row.
func (s *Storage) RefreshOffers(ctx context.Context, offers model.Offers,
) (refreshed CacheRefreshed, err error) {
	if len(offers) == 0 {
		return refreshed, nil
	}

	err = pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		r, err := s.refreshOffers(ctx, tx, offers)
		if err != nil {
			return err
		}
		refreshed = r
		return nil
	})
	if err != nil {
		return refreshed, fmt.Errorf("unable refresh %d offers: %w",
			len(offers), err)
	}
	return refreshed, nil
}

func (s *Storage) refreshOffers(ctx context.Context, tx pgx.Tx,
	offers model.Offers,
) (refreshed CacheRefreshed, err error) {
	known, err := s.cachedOfferHashes(ctx, tx, offers.IDs())
	if err != nil {
		return refreshed, err
	}

	//nolint:prealloc // don't know how many of each
	var newOffers, changedOffers model.Offers
	for _, o := range offers {
		hash, ok := known[o.ID]
		switch {
		case !ok:
			newOffers = append(newOffers, o)
		case hash != o.Hash:
			changedOffers = append(changedOffers, o)
		}
	}

	refreshed.Created = len(newOffers)
	refreshed.Updated = len(changedOffers)

	for _, o := range changedOffers {
		if err := s.updateOffer(ctx, tx, o); err != nil {
			return refreshed, err
		}
	}
	return refreshed, s.createOffers(ctx, tx, newOffers)
}

func (s *Storage) cachedOfferHashes(ctx context.Context, tx pgx.Tx,
	ids []int64,
) (map[int64]string, error) {
	rows, _ := tx.Query(ctx, `
SELECT id, hash
  FROM cached_offers
 WHERE id = ANY($1)`, ids)

	var id int64
	var hash string
	known := make(map[int64]string, len(ids))

	_, err := pgx.ForEachRow(rows, []any{&id, &hash}, func() error {
		known[id] = hash
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("storage: check offers exist: %w", err)
	}
	return known, nil
}

func (s *Storage) updateOffer(ctx context.Context, tx pgx.Tx, o *model.Offer,
) error {
	_, err := tx.Exec(ctx, `
UPDATE cached_offers
   SET reference = $2,
       title = $3,
       organization_name = $4,
       city_name = $5,
       city_name_en = $6,
       country_id = $7,
       country_name = $8,
       country_name_en = $9,
       start_date = $10,
       duration_months = $11,
       mission_type = $12,
       teleworking = $13,
       stipend = $14,
       activity_sector_id = $15,
       study_level_id = $16,
       company_size = $17,
       geographic_zone = $18,
       raw_data = $19,
       hash = $20,
       updated_at = now()
 WHERE id = $1`,
		o.ID,
		o.Reference,
		o.Title,
		o.OrganizationName,
		o.CityName,
		o.CityNameEn,
		o.CountryID,
		o.CountryName,
		o.CountryNameEn,
		o.StartDate,
		o.DurationMonths,
		o.MissionType,
		o.Teleworking,
		o.Stipend,
		o.ActivitySectorID,
		o.StudyLevelID,
		o.CompanySize,
		o.GeographicZone,
		o.RawData,
		o.Hash)
	if err != nil {
		return fmt.Errorf("storage: update offer #%d: %w", o.ID, err)
	}
	return nil
}

func (s *Storage) createOffers(ctx context.Context, tx pgx.Tx,
	offers model.Offers,
) error {
	if len(offers) == 0 {
		return nil
	}

	now := time.Now()
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"cached_offers"},
		[]string{
			"id",
			"reference",
			"title",
			"organization_name",
			"city_name",
			"city_name_en",
			"country_id",
			"country_name",
			"country_name_en",
			"start_date",
			"duration_months",
			"mission_type",
			"teleworking",
			"stipend",
			"activity_sector_id",
			"study_level_id",
			"company_size",
			"geographic_zone",
			"raw_data",
			"hash",
			"updated_at",
		},
		pgx.CopyFromSlice(len(offers), func(i int) ([]any, error) {
			o := offers[i]
			return []any{
				o.ID,
				o.Reference,
				o.Title,
				o.OrganizationName,
				o.CityName,
				o.CityNameEn,
				o.CountryID,
				o.CountryName,
				o.CountryNameEn,
				o.StartDate,
				o.DurationMonths,
				o.MissionType,
				o.Teleworking,
				o.Stipend,
				o.ActivitySectorID,
				o.StudyLevelID,
				o.CompanySize,
				o.GeographicZone,
				o.RawData,
				o.Hash,
				now,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("storage: copy from cached_offers: %w", err)
	}
	return nil
}

// RemoveMissingOffers deletes cached offers that are no longer present in
// the upstream catalog. The keep list is the complete set of IDs seen during
// the current sync.
func (s *Storage) RemoveMissingOffers(ctx context.Context, keep []int64,
) (int64, error) {
	result, err := s.db.Exec(ctx, `
DELETE FROM cached_offers WHERE NOT (id = ANY($1))`, keep)
	if err != nil {
		return 0, fmt.Errorf("storage: remove missing offers: %w", err)
	}
	return result.RowsAffected(), nil
}

// MatchOffers returns cached offers passing the structured subscription
// filters, newest first. Fuzzy stages run in memory on top of this.
func (s *Storage) MatchOffers(ctx context.Context,
	f *model.SubscriptionFilters,
) (model.Offers, error) {
	return s.OfferQueryFromFilters(f).
		WithSorting("o.updated_at", "DESC").
		WithSorting("o.id", "ASC").
		GetOffers(ctx)
}

func (s *Storage) CountOffers(ctx context.Context) (int, error) {
	rows, _ := s.db.Query(ctx, `SELECT count(*) FROM cached_offers`)
	count, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("storage: count offers: %w", err)
	}
	return count, nil
}

// LastOfferRefresh returns when the last catalog sync completed, or the
// epoch when no sync ever ran.
func (s *Storage) LastOfferRefresh(ctx context.Context) (time.Time, error) {
	rows, _ := s.db.Query(ctx, `
SELECT offers_refreshed_at FROM sync_status`)
	t, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[time.Time])
	if err != nil {
		return time.Time{}, fmt.Errorf("storage: last offer refresh: %w", err)
	}
	return t, nil
}

// TouchOfferRefresh records a completed catalog sync. Freshness lives in its
// own row and not in max(updated_at) over the cache: a sync of an unchanged
// catalog skips every row write, yet the cache is fresh again.
func (s *Storage) TouchOfferRefresh(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
UPDATE sync_status SET offers_refreshed_at = now()`)
	if err != nil {
		return fmt.Errorf("storage: touch offer refresh: %w", err)
	}
	return nil
}
