package model // import "jobwatch.app/internal/model"

import "time"

// City is a derived aggregate over the offer cache, keyed by the normalized
// (lowercased, trimmed) city name. OfferCount and LastSeenAt are refreshed on
// every catalog sync.
type City struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"city_name" db:"city_name"`
	NameEn      string    `json:"city_name_en" db:"city_name_en"`
	CountryID   string    `json:"country_id" db:"country_id"`
	CountryName string    `json:"country_name" db:"country_name"`
	OfferCount  int       `json:"offer_count" db:"offer_count"`
	LastSeenAt  time.Time `json:"last_seen_at" db:"last_seen_at"`
}

type Cities []*City
