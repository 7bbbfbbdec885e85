package model // import "jobwatch.app/internal/model"

import (
	"strconv"
	"strings"
	"time"
)

// Notification channels supported by subscriptions.
const (
	ChannelTelegram = "telegram"
	ChannelDiscord  = "discord"
	ChannelEmail    = "email"
)

// Subscription is a user's saved filter with a notification target and the
// per-subscription dedupe state. SeenOfferIDs only grows during normal
// operation; it is the sole deduplication mechanism.
type Subscription struct {
	ID           int64               `json:"id" db:"id"`
	UserID       int64               `json:"user_id" db:"user_id"`
	Label        string              `json:"label" db:"label"`
	Filters      SubscriptionFilters `json:"filters" db:"filters"`
	Channel      string              `json:"channel" db:"channel"`
	Target       string              `json:"target" db:"target"`
	SeenOfferIDs []int64             `json:"seen_offer_ids" db:"seen_offer_ids"`
	Active       bool                `json:"is_active" db:"is_active"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
}

type Subscriptions []*Subscription

// SeenSet returns the seen-offer-ID set as a map for diffing.
func (s *Subscription) SeenSet() map[int64]struct{} {
	seen := make(map[int64]struct{}, len(s.SeenOfferIDs))
	for _, id := range s.SeenOfferIDs {
		seen[id] = struct{}{}
	}
	return seen
}

// SubscriptionFilters is the declarative filter criteria of one subscription.
// JSON field names follow the upstream search API, so a stored filter can be
// replayed against the live endpoint as-is. An absent or empty field means
// "no constraint".
type SubscriptionFilters struct {
	CountryIDs      []string `json:"countriesIds,omitempty"`
	GeographicZones []string `json:"geographicZones,omitempty"`
	Durations       []string `json:"missionsDurations,omitempty"`
	Teleworking     []string `json:"teletravail,omitempty"`
	MissionTypeIDs  []string `json:"missionsTypesIds,omitempty"`
	ActivitySectors []string `json:"activitySectorId,omitempty"`
	StudyLevels     []string `json:"studiesLevelId,omitempty"`
	CompanySizes    []string `json:"companiesSizes,omitempty"`
	Query           string   `json:"query,omitempty"`
	CitySearch      string   `json:"citySearch,omitempty"`
	CompanySearch   string   `json:"companySearch,omitempty"`
	MinStipend      *float64 `json:"minIndemnite,omitempty"`
	MaxStipend      *float64 `json:"maxIndemnite,omitempty"`
	StartDateAfter  string   `json:"startDateAfter,omitempty"`
	StartDateBefore string   `json:"startDateBefore,omitempty"`
}

// MissionTypes maps the generic numeric type codes to the canonical mission
// type tags used by the offer cache. Unknown codes are dropped.
func (f *SubscriptionFilters) MissionTypes() []string {
	if len(f.MissionTypeIDs) == 0 {
		return nil
	}

	types := make([]string, 0, len(f.MissionTypeIDs))
	for _, id := range f.MissionTypeIDs {
		switch id {
		case "1":
			types = append(types, MissionTypeVIE)
		case "2":
			types = append(types, MissionTypeVIA)
		}
	}
	return types
}

// DurationMonths parses the duration filter values into month counts.
// Values that are not numbers are dropped.
func (f *SubscriptionFilters) DurationMonths() []int {
	if len(f.Durations) == 0 {
		return nil
	}

	months := make([]int, 0, len(f.Durations))
	for _, d := range f.Durations {
		if n, err := strconv.Atoi(strings.TrimSpace(d)); err == nil {
			months = append(months, n)
		}
	}
	return months
}

// Cities splits the pipe-delimited city filter into individual city names.
func (f *SubscriptionFilters) Cities() []string {
	if f.CitySearch == "" {
		return nil
	}

	names := strings.Split(f.CitySearch, "|")
	cities := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			cities = append(cities, name)
		}
	}
	return cities
}

// TeleworkingOnly reports whether the filter restricts offers to teleworking
// positions.
func (f *SubscriptionFilters) TeleworkingOnly() bool {
	for _, v := range f.Teleworking {
		if v == "1" {
			return true
		}
	}
	return false
}

// StartAfter returns the lower bound of the start-date range, if set.
func (f *SubscriptionFilters) StartAfter() (time.Time, bool) {
	return parseFilterDate(f.StartDateAfter)
}

// StartBefore returns the upper bound of the start-date range, if set.
func (f *SubscriptionFilters) StartBefore() (time.Time, bool) {
	return parseFilterDate(f.StartDateBefore)
}

func parseFilterDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// SubscriptionCreationRequest is the payload to create a subscription.
type SubscriptionCreationRequest struct {
	Label   string              `json:"label"`
	Filters SubscriptionFilters `json:"filters"`
	Channel string              `json:"channel"`
	Target  string              `json:"target"`
}

// TestNotificationRequest is the payload to try a channel and target before
// any subscription is saved.
type TestNotificationRequest struct {
	Channel string `json:"channel"`
	Target  string `json:"target"`
}

// SubscriptionModificationRequest is the payload to update a subscription.
// All fields are optional.
type SubscriptionModificationRequest struct {
	Label   *string              `json:"label"`
	Filters *SubscriptionFilters `json:"filters"`
	Channel *string              `json:"channel"`
	Target  *string              `json:"target"`
	Active  *bool                `json:"is_active"`
}

// Patch applies the non-nil fields of the request to the subscription.
func (r *SubscriptionModificationRequest) Patch(s *Subscription) {
	if r.Label != nil {
		s.Label = *r.Label
	}
	if r.Filters != nil {
		s.Filters = *r.Filters
	}
	if r.Channel != nil {
		s.Channel = *r.Channel
	}
	if r.Target != nil {
		s.Target = *r.Target
	}
	if r.Active != nil {
		s.Active = *r.Active
	}
}

// ValidChannel reports whether the given channel name is supported.
func ValidChannel(channel string) bool {
	switch channel {
	case ChannelTelegram, ChannelDiscord, ChannelEmail:
		return true
	}
	return false
}
