package storage // import "jobwatch.app/internal/storage"

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobwatch.app/internal/model"
)

// NewOfferQueryBuilder returns a new OfferQueryBuilder.
func (s *Storage) NewOfferQueryBuilder() *OfferQueryBuilder {
	return &OfferQueryBuilder{
		store:      s,
		db:         s.db,
		conditions: []string{"true"},
	}
}

// OfferQueryFromFilters returns a builder with every structured
// subscription filter pushed down to SQL. The fuzzy city and company stages
// stay in memory, see the filter package.
func (s *Storage) OfferQueryFromFilters(f *model.SubscriptionFilters,
) *OfferQueryBuilder {
	q := s.NewOfferQueryBuilder().
		WithCountryIDs(f.CountryIDs).
		WithGeographicZones(f.GeographicZones).
		WithMissionTypes(f.MissionTypes()).
		WithDurations(f.DurationMonths()).
		WithActivitySectors(f.ActivitySectors).
		WithStudyLevels(f.StudyLevels).
		WithCompanySizes(f.CompanySizes).
		WithSearchQuery(f.Query)

	if f.TeleworkingOnly() {
		q.WithTeleworking()
	}
	if f.MinStipend != nil {
		q.WithMinStipend(*f.MinStipend)
	}
	if f.MaxStipend != nil {
		q.WithMaxStipend(*f.MaxStipend)
	}
	if t, ok := f.StartAfter(); ok {
		q.AfterStartDate(t)
	}
	if t, ok := f.StartBefore(); ok {
		q.BeforeStartDate(t)
	}
	return q
}

// OfferQueryBuilder builds a SQL query to fetch cached offers.
type OfferQueryBuilder struct {
	store           *Storage
	db              *pgxpool.Pool
	args            []any
	conditions      []string
	sortExpressions []string
	limit           int
	offset          int
}

func (self *OfferQueryBuilder) appendCondition(prefix string, arg any,
	suffix string,
) string {
	if arg == nil {
		self.conditions = append(self.conditions, prefix)
		return ""
	}

	self.args = append(self.args, arg)
	argPos := strconv.Itoa(len(self.args))

	s := prefix + argPos
	if suffix != "" {
		s += suffix
	}

	self.conditions = append(self.conditions, s)
	return argPos
}

func (self *OfferQueryBuilder) WithOfferID(offerID int64) *OfferQueryBuilder {
	if offerID != 0 {
		self.appendCondition("o.id = $", offerID, "")
	}
	return self
}

func (self *OfferQueryBuilder) WithOfferIDs(offerIDs []int64,
) *OfferQueryBuilder {
	self.appendCondition("o.id = ANY($", offerIDs, ")")
	return self
}

func (self *OfferQueryBuilder) WithCountryIDs(ids []string,
) *OfferQueryBuilder {
	if len(ids) > 0 {
		self.appendCondition("o.country_id = ANY($", ids, ")")
	}
	return self
}

func (self *OfferQueryBuilder) WithGeographicZones(zones []string,
) *OfferQueryBuilder {
	if len(zones) > 0 {
		self.appendCondition("o.geographic_zone = ANY($", zones, ")")
	}
	return self
}

func (self *OfferQueryBuilder) WithMissionTypes(types []string,
) *OfferQueryBuilder {
	if len(types) > 0 {
		self.appendCondition("o.mission_type = ANY($", types, ")")
	}
	return self
}

func (self *OfferQueryBuilder) WithDurations(months []int,
) *OfferQueryBuilder {
	if len(months) > 0 {
		self.appendCondition("o.duration_months = ANY($", months, ")")
	}
	return self
}

// WithTeleworking keeps only offers that allow remote work.
func (self *OfferQueryBuilder) WithTeleworking() *OfferQueryBuilder {
	self.appendCondition("o.teleworking is true", nil, "")
	return self
}

func (self *OfferQueryBuilder) WithActivitySectors(sectors []string,
) *OfferQueryBuilder {
	if len(sectors) > 0 {
		self.appendCondition("o.activity_sector_id = ANY($", sectors, ")")
	}
	return self
}

func (self *OfferQueryBuilder) WithStudyLevels(levels []string,
) *OfferQueryBuilder {
	if len(levels) > 0 {
		self.appendCondition("o.study_level_id = ANY($", levels, ")")
	}
	return self
}

func (self *OfferQueryBuilder) WithCompanySizes(sizes []string,
) *OfferQueryBuilder {
	if len(sizes) > 0 {
		self.appendCondition("o.company_size = ANY($", sizes, ")")
	}
	return self
}

func (self *OfferQueryBuilder) WithMinStipend(amount float64,
) *OfferQueryBuilder {
	self.appendCondition("o.stipend >= $", amount, "")
	return self
}

func (self *OfferQueryBuilder) WithMaxStipend(amount float64,
) *OfferQueryBuilder {
	self.appendCondition("o.stipend <= $", amount, "")
	return self
}

// AfterStartDate adds a condition start_date >= date.
func (self *OfferQueryBuilder) AfterStartDate(date time.Time,
) *OfferQueryBuilder {
	self.appendCondition("o.start_date >= $", date, "")
	return self
}

// BeforeStartDate adds a condition start_date <= date.
func (self *OfferQueryBuilder) BeforeStartDate(date time.Time,
) *OfferQueryBuilder {
	self.appendCondition("o.start_date <= $", date, "")
	return self
}

// WithSearchQuery adds a case-insensitive substring match over title,
// organization and reference.
func (self *OfferQueryBuilder) WithSearchQuery(query string,
) *OfferQueryBuilder {
	if query == "" {
		return self
	}

	self.args = append(self.args, "%"+query+"%")
	argPos := strconv.Itoa(len(self.args))
	self.conditions = append(self.conditions,
		`(o.title ILIKE $`+argPos+
			` OR o.organization_name ILIKE $`+argPos+
			` OR o.reference ILIKE $`+argPos+`)`)
	return self
}

func (self *OfferQueryBuilder) WithSorting(column, direction string,
) *OfferQueryBuilder {
	self.sortExpressions = append(self.sortExpressions,
		column+" "+direction)
	return self
}

func (self *OfferQueryBuilder) WithLimit(limit int) *OfferQueryBuilder {
	if limit > 0 {
		self.limit = limit
	}
	return self
}

func (self *OfferQueryBuilder) WithOffset(offset int) *OfferQueryBuilder {
	if offset > 0 {
		self.offset = offset
	}
	return self
}

func (self *OfferQueryBuilder) buildCondition() string {
	return strings.Join(self.conditions, " AND ")
}

func (self *OfferQueryBuilder) buildSorting() string {
	var parts []string
	if len(self.sortExpressions) > 0 {
		parts = append(parts,
			"ORDER BY "+strings.Join(self.sortExpressions, ", "))
	}
	if self.limit > 0 {
		parts = append(parts, "LIMIT "+strconv.Itoa(self.limit))
	}
	if self.offset > 0 {
		parts = append(parts, "OFFSET "+strconv.Itoa(self.offset))
	}
	return strings.Join(parts, " ")
}

// CountOffers count the number of offers that match the conditions.
func (self *OfferQueryBuilder) CountOffers(ctx context.Context) (int, error) {
	query := `SELECT count(*) FROM cached_offers o WHERE ` +
		self.buildCondition()

	rows, _ := self.db.Query(ctx, query, self.args...)
	count, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("storage: unable to count offers: %w", err)
	}
	return count, nil
}

// GetOffer returns a single offer that matches the conditions.
func (self *OfferQueryBuilder) GetOffer(ctx context.Context,
) (*model.Offer, error) {
	self.limit = 1
	offers, err := self.GetOffers(ctx)
	if err != nil {
		return nil, err
	} else if len(offers) == 0 {
		return nil, nil
	}
	return offers[0], nil
}

// GetOffers returns a list of offers that match the conditions.
func (self *OfferQueryBuilder) GetOffers(ctx context.Context,
) (model.Offers, error) {
	query := `
SELECT
  o.id,
  o.reference,
  o.title,
  o.organization_name,
  o.city_name,
  o.city_name_en,
  o.country_id,
  o.country_name,
  o.country_name_en,
  o.start_date,
  o.duration_months,
  o.mission_type,
  o.teleworking,
  o.stipend,
  o.activity_sector_id,
  o.study_level_id,
  o.company_size,
  o.geographic_zone,
  o.raw_data,
  o.hash,
  o.updated_at
FROM cached_offers o
WHERE ` + self.buildCondition() + " " + self.buildSorting()

	rows, _ := self.db.Query(ctx, query, self.args...)
	offers, err := pgx.CollectRows(rows,
		pgx.RowToAddrOfStructByName[model.Offer])
	if err != nil {
		return nil, fmt.Errorf("storage: unable to get offers: %w", err)
	}
	return offers, nil
}

// GetOfferIDs returns a list of offer IDs that match the conditions.
func (self *OfferQueryBuilder) GetOfferIDs(ctx context.Context,
) ([]int64, error) {
	query := `SELECT o.id FROM cached_offers o WHERE ` +
		self.buildCondition() + " " + self.buildSorting()

	rows, _ := self.db.Query(ctx, query, self.args...)
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("storage: unable to get offer IDs: %w", err)
	}
	return ids, nil
}
