package upstream // import "jobwatch.app/internal/upstream"

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"jobwatch.app/internal/model"
)

// searchBody is the fixed request payload expected by the upstream search
// endpoint. All filter fields are sent, most of them empty: filtering
// happens locally against the cache, not upstream.
type searchBody struct {
	Limit            int      `json:"limit"`
	Skip             int      `json:"skip"`
	Query            *string  `json:"query"`
	GeographicZones  []string `json:"geographicZones"`
	CountryIDs       []string `json:"countriesIds"`
	Teleworking      []string `json:"teletravail"`
	PorteEnv         []string `json:"porteEnv"`
	ActivitySectors  []string `json:"activitySectorId"`
	MissionTypeIDs   []string `json:"missionsTypesIds"`
	MissionDurations []string `json:"missionsDurations"`
	StudyLevels      []string `json:"studiesLevelId"`
	CompanySizes     []string `json:"companiesSizes"`
	Specializations  []string `json:"specializationsIds"`
	CompanyIDs       []int    `json:"entreprisesIds"`
	MissionStartDate *string  `json:"missionStartDate"`
}

func newSearchBody(limit, skip int) *searchBody {
	return &searchBody{
		Limit:            limit,
		Skip:             skip,
		GeographicZones:  []string{},
		CountryIDs:       []string{},
		Teleworking:      []string{},
		PorteEnv:         []string{},
		ActivitySectors:  []string{},
		MissionTypeIDs:   []string{},
		MissionDurations: []string{},
		StudyLevels:      []string{},
		CompanySizes:     []string{},
		Specializations:  []string{},
		CompanyIDs:       []int{0},
	}
}

type searchResponse struct {
	Result     []json.RawMessage `json:"result"`
	TotalCount int               `json:"totalCount"`
}

// wireOffer is one raw catalog record. Numeric codes arrive sometimes as
// numbers and sometimes as strings, hence json.Number.
type wireOffer struct {
	ID                   int64       `json:"id"`
	Reference            string      `json:"reference"`
	MissionTitle         string      `json:"missionTitle"`
	OrganizationName     string      `json:"organizationName"`
	CityName             string      `json:"cityName"`
	CityNameEn           string      `json:"cityNameEn"`
	CountryID            string      `json:"countryId"`
	CountryName          string      `json:"countryName"`
	CountryNameEn        string      `json:"countryNameEn"`
	MissionStartDate     string      `json:"missionStartDate"`
	MissionDuration      int         `json:"missionDuration"`
	MissionType          json.Number `json:"missionType"`
	TeleworkingAvailable bool        `json:"teleworkingAvailable"`
	Indemnite            float64     `json:"indemnite"`
	ActivitySectorID     json.Number `json:"activitySectorId"`
	StudyLevelID         json.Number `json:"studiesLevelId"`
	CompanySize          json.Number `json:"companiesSize"`
	GeographicZone       json.Number `json:"geographicZone"`
}

var startDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseStartDate(s string) time.Time {
	for _, layout := range startDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func missionTypeTag(code json.Number) string {
	switch code.String() {
	case "1":
		return model.MissionTypeVIE
	case "2":
		return model.MissionTypeVIA
	}
	return ""
}

func codeString(n json.Number) string {
	if s := n.String(); s != "" && s != "0" {
		return s
	}
	return ""
}

// decodeOffer normalizes one raw catalog record. The raw payload is kept
// verbatim and its xxhash marks the record version for the cache.
func decodeOffer(raw json.RawMessage) (*model.Offer, error) {
	var w wireOffer
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("unmarshal offer: %w", err)
	} else if w.ID == 0 {
		return nil, fmt.Errorf("offer without id: %.100q", string(raw))
	}

	return &model.Offer{
		ID:               w.ID,
		Reference:        w.Reference,
		Title:            w.MissionTitle,
		OrganizationName: w.OrganizationName,
		CityName:         w.CityName,
		CityNameEn:       w.CityNameEn,
		CountryID:        w.CountryID,
		CountryName:      w.CountryName,
		CountryNameEn:    w.CountryNameEn,
		StartDate:        parseStartDate(w.MissionStartDate),
		DurationMonths:   w.MissionDuration,
		MissionType:      missionTypeTag(w.MissionType),
		Teleworking:      w.TeleworkingAvailable,
		Stipend:          w.Indemnite,
		ActivitySectorID: codeString(w.ActivitySectorID),
		StudyLevelID:     codeString(w.StudyLevelID),
		CompanySize:      codeString(w.CompanySize),
		GeographicZone:   codeString(w.GeographicZone),
		RawData:          raw,
		Hash:             strconv.FormatUint(xxhash.Sum64(raw), 16),
	}, nil
}
