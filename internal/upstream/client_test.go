package upstream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch.app/internal/model"
)

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(1000), body["limit"])
			assert.Equal(t, float64(2000), body["skip"])
			assert.Nil(t, body["query"])
			assert.Equal(t, []any{float64(0)}, body["entreprisesIds"])

			fmt.Fprint(w, `{
  "result": [
    {
      "id": 101,
      "reference": "VIE-101",
      "missionTitle": "Backend Engineer",
      "organizationName": "ACME",
      "cityName": "Tokyo",
      "cityNameEn": "Tokyo",
      "countryId": "JP",
      "countryName": "Japon",
      "countryNameEn": "Japan",
      "missionStartDate": "2026-10-01T00:00:00",
      "missionDuration": 12,
      "missionType": 1,
      "teleworkingAvailable": true,
      "indemnite": 2500.5,
      "activitySectorId": 4,
      "studiesLevelId": "5",
      "companiesSize": 0,
      "geographicZone": 4
    },
    {"missionTitle": "no id, must be skipped"}
  ],
  "totalCount": 4321
}`)
		}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, 1000)
	offers, total, err := c.FetchPage(t.Context(), 2000)
	require.NoError(t, err)
	assert.Equal(t, 4321, total)
	require.Len(t, offers, 1)

	o := offers[0]
	assert.Equal(t, int64(101), o.ID)
	assert.Equal(t, "Backend Engineer", o.Title)
	assert.Equal(t, model.MissionTypeVIE, o.MissionType)
	assert.Equal(t, "JP", o.CountryID)
	assert.Equal(t, 2026, o.StartDate.Year())
	assert.Equal(t, 12, o.DurationMonths)
	assert.True(t, o.Teleworking)
	assert.InDelta(t, 2500.5, o.Stipend, 0.001)
	assert.Equal(t, "4", o.ActivitySectorID)
	assert.Equal(t, "5", o.StudyLevelID)
	assert.Empty(t, o.CompanySize)
	assert.NotEmpty(t, o.Hash)
	assert.NotEmpty(t, o.RawData)
	assert.Equal(t,
		"https://mon-vie-via.businessfrance.fr/offre/101", o.Link())
}

func TestFetchPage_upstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, 1000)
	_, _, err := c.FetchPage(t.Context(), 0)
	require.ErrorContains(t, err, "unexpected status 502")
}

func fakeCatalog(t *testing.T, pageLimit, catalogSize int) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Limit int `json:"limit"`
				Skip  int `json:"skip"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

			page := make([]json.RawMessage, 0, body.Limit)
			for id := body.Skip + 1; id <= body.Skip+body.Limit; id++ {
				if catalogSize > 0 && id > catalogSize {
					break
				}
				page = append(page, json.RawMessage(
					`{"id": `+strconv.Itoa(id)+`}`))
			}
			json.NewEncoder(w).Encode(map[string]any{
				"result": page, "totalCount": catalogSize,
			})
		}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second, pageLimit)
}

func TestFetchAll(t *testing.T) {
	c := fakeCatalog(t, 10, 23)
	offers, err := c.FetchAll(t.Context(), 20000)
	require.NoError(t, err)
	assert.Len(t, offers, 23)
}

func TestFetchAll_safetyCeiling(t *testing.T) {
	// catalogSize 0 means the fake never returns an empty page
	c := fakeCatalog(t, 10, 0)
	offers, err := c.FetchAll(t.Context(), 25)
	require.NoError(t, err)
	assert.Len(t, offers, 25)
}
