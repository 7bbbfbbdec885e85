package model // import "jobwatch.app/internal/model"

import (
	"encoding/json"
	"strconv"
	"time"
)

// Mission type tags as stored in the offer cache. The upstream API encodes
// them as numeric codes (1 and 2), which are mapped to these tags during
// normalization.
const (
	MissionTypeVIE = "VIE"
	MissionTypeVIA = "VIA"
)

const offerBaseURL = "https://mon-vie-via.businessfrance.fr/offre/"

// Offer is one normalized job posting from the upstream catalog. The full
// original upstream record is kept in RawData for fields that are not
// normalized into columns.
type Offer struct {
	ID               int64           `json:"id" db:"id"`
	Reference        string          `json:"reference" db:"reference"`
	Title            string          `json:"title" db:"title"`
	OrganizationName string          `json:"organization_name" db:"organization_name"`
	CityName         string          `json:"city_name" db:"city_name"`
	CityNameEn       string          `json:"city_name_en" db:"city_name_en"`
	CountryID        string          `json:"country_id" db:"country_id"`
	CountryName      string          `json:"country_name" db:"country_name"`
	CountryNameEn    string          `json:"country_name_en" db:"country_name_en"`
	StartDate        time.Time       `json:"start_date" db:"start_date"`
	DurationMonths   int             `json:"duration_months" db:"duration_months"`
	MissionType      string          `json:"mission_type" db:"mission_type"`
	Teleworking      bool            `json:"teleworking" db:"teleworking"`
	Stipend          float64         `json:"stipend" db:"stipend"`
	ActivitySectorID string          `json:"activity_sector_id" db:"activity_sector_id"`
	StudyLevelID     string          `json:"study_level_id" db:"study_level_id"`
	CompanySize      string          `json:"company_size" db:"company_size"`
	GeographicZone   string          `json:"geographic_zone" db:"geographic_zone"`
	RawData          json.RawMessage `json:"raw_data,omitempty" db:"raw_data"`
	Hash             string          `json:"-" db:"hash"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

type Offers []*Offer

// Link returns the public URL of the offer on the upstream site.
func (o *Offer) Link() string {
	return offerBaseURL + strconv.FormatInt(o.ID, 10)
}

// City returns the best available city name for display.
func (o *Offer) City() string {
	if o.CityName != "" {
		return o.CityName
	}
	return o.CityNameEn
}

// Country returns the best available country name for display.
func (o *Offer) Country() string {
	if o.CountryNameEn != "" {
		return o.CountryNameEn
	}
	return o.CountryName
}

// IDs returns the external IDs of all offers, preserving order.
func (offers Offers) IDs() []int64 {
	ids := make([]int64, len(offers))
	for i, o := range offers {
		ids[i] = o.ID
	}
	return ids
}
