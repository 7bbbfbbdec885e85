// Package filter decides which cached offers a subscription is interested
// in. Structured predicates are exact matches; free text fields (city,
// company, keyword) tolerate accents, substrings and small typos.
package filter // import "jobwatch.app/internal/filter"

import (
	"slices"
	"strings"

	"jobwatch.app/internal/model"
)

// Apply returns the subset of offers matching the filters, preserving
// order. The result is never a superset of the input.
func Apply(f *model.SubscriptionFilters, offers model.Offers) model.Offers {
	matched := make(model.Offers, 0, len(offers))
	for _, o := range offers {
		if Matches(f, o) {
			matched = append(matched, o)
		}
	}
	return matched
}

// Matches reports whether one offer passes every predicate of the filters.
// An absent or empty filter field constrains nothing; values within one
// field are alternatives.
func Matches(f *model.SubscriptionFilters, o *model.Offer) bool {
	return matchesStructured(f, o) && matchesFuzzy(f, o)
}

func matchesStructured(f *model.SubscriptionFilters, o *model.Offer) bool {
	switch {
	case !anyOf(f.CountryIDs, o.CountryID),
		!anyOf(f.GeographicZones, o.GeographicZone),
		!anyOf(f.MissionTypes(), o.MissionType),
		!anyOfInt(f.DurationMonths(), o.DurationMonths),
		!anyOf(f.ActivitySectors, o.ActivitySectorID),
		!anyOf(f.StudyLevels, o.StudyLevelID),
		!anyOf(f.CompanySizes, o.CompanySize):
		return false
	case f.TeleworkingOnly() && !o.Teleworking:
		return false
	case f.MinStipend != nil && o.Stipend < *f.MinStipend:
		return false
	case f.MaxStipend != nil && o.Stipend > *f.MaxStipend:
		return false
	}

	if t, ok := f.StartAfter(); ok && o.StartDate.Before(t) {
		return false
	}
	if t, ok := f.StartBefore(); ok && o.StartDate.After(t) {
		return false
	}
	return matchesKeyword(f.Query, o)
}

func matchesKeyword(query string, o *model.Offer) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(o.Title), q) ||
		strings.Contains(strings.ToLower(o.OrganizationName), q) ||
		strings.Contains(strings.ToLower(o.Reference), q)
}

func matchesFuzzy(f *model.SubscriptionFilters, o *model.Offer) bool {
	if cities := f.Cities(); len(cities) > 0 {
		if !MatchAny(cities, o.CityName) &&
			!MatchAny(cities, o.CityNameEn) {
			return false
		}
	}

	if f.CompanySearch != "" {
		if !Match(f.CompanySearch, o.OrganizationName) {
			return false
		}
	}
	return true
}

func anyOf(values []string, v string) bool {
	return len(values) == 0 || slices.Contains(values, v)
}

func anyOfInt(values []int, v int) bool {
	return len(values) == 0 || slices.Contains(values, v)
}
