package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jobwatch.app/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Côte d'Ivoire", "cote d'ivoire"},
		{"  SÃO PAULO ", "sao paulo"},
		{"München", "munchen"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Normalize(tc.in), "Normalize(%q)", tc.in)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		query, candidate string
		want             bool
	}{
		{"Cote d'Ivoire", "Côte d'Ivoire", true},
		{"Paris", "Paris, France", true},
		{"Paris, France", "Paris", true},
		{"Tokio", "Tokyo", true},
		{"Tokyo", "Osaka", false},
		{"Berlin", "Madrid", false},
		{"", "Paris", false},
		{"Paris", "", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Match(tc.query, tc.candidate),
			"Match(%q, %q)", tc.query, tc.candidate)
	}
}

func testOffer() *model.Offer {
	return &model.Offer{
		ID:               1,
		Reference:        "VIE-1",
		Title:            "Data Engineer",
		OrganizationName: "ACME Industries",
		CityName:         "Tōkyō",
		CityNameEn:       "Tokyo",
		CountryID:        "JP",
		CountryName:      "Japon",
		StartDate:        time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		DurationMonths:   12,
		MissionType:      model.MissionTypeVIE,
		Teleworking:      false,
		Stipend:          2500,
		ActivitySectorID: "4",
		StudyLevelID:     "5",
		GeographicZone:   "4",
	}
}

func TestMatches(t *testing.T) {
	amount := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		filters model.SubscriptionFilters
		want    bool
	}{
		{"empty filters match everything", model.SubscriptionFilters{}, true},
		{
			"country hit",
			model.SubscriptionFilters{CountryIDs: []string{"DE", "JP"}},
			true,
		},
		{
			"country miss",
			model.SubscriptionFilters{CountryIDs: []string{"DE"}},
			false,
		},
		{
			"mission type code",
			model.SubscriptionFilters{MissionTypeIDs: []string{"1"}},
			true,
		},
		{
			"mission type miss",
			model.SubscriptionFilters{MissionTypeIDs: []string{"2"}},
			false,
		},
		{
			"duration hit",
			model.SubscriptionFilters{Durations: []string{"6", "12"}},
			true,
		},
		{
			"teleworking required",
			model.SubscriptionFilters{Teleworking: []string{"1"}},
			false,
		},
		{
			"stipend range",
			model.SubscriptionFilters{
				MinStipend: amount(2000), MaxStipend: amount(3000),
			},
			true,
		},
		{
			"stipend too low",
			model.SubscriptionFilters{MinStipend: amount(3000)},
			false,
		},
		{
			"start date window",
			model.SubscriptionFilters{
				StartDateAfter:  "2026-09-01",
				StartDateBefore: "2026-12-31",
			},
			true,
		},
		{
			"starts too late",
			model.SubscriptionFilters{StartDateBefore: "2026-09-01"},
			false,
		},
		{
			"keyword in title",
			model.SubscriptionFilters{Query: "data"},
			true,
		},
		{
			"keyword in organization",
			model.SubscriptionFilters{Query: "acme"},
			true,
		},
		{
			"keyword miss",
			model.SubscriptionFilters{Query: "frontend"},
			false,
		},
		{
			"fuzzy city with accents",
			model.SubscriptionFilters{CitySearch: "tokyo"},
			true,
		},
		{
			"fuzzy city OR list",
			model.SubscriptionFilters{CitySearch: "Osaka | Tokyo"},
			true,
		},
		{
			"fuzzy city miss",
			model.SubscriptionFilters{CitySearch: "Osaka"},
			false,
		},
		{
			"fuzzy company",
			model.SubscriptionFilters{CompanySearch: "acme industries"},
			true,
		},
		{
			"fuzzy company miss",
			model.SubscriptionFilters{CompanySearch: "globex"},
			false,
		},
		{
			"all fields AND",
			model.SubscriptionFilters{
				CountryIDs: []string{"JP"},
				Query:      "frontend",
			},
			false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(&tc.filters, testOffer()))
		})
	}
}

func TestApply(t *testing.T) {
	paris := testOffer()
	paris.ID = 2
	paris.CityName, paris.CityNameEn = "Paris", "Paris"
	paris.CountryID = "FR"

	offers := model.Offers{testOffer(), paris}
	got := Apply(&model.SubscriptionFilters{CitySearch: "paris"}, offers)
	assert.Equal(t, []int64{2}, got.IDs())

	got = Apply(&model.SubscriptionFilters{}, offers)
	assert.Len(t, got, 2)
}
