package discord

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch.app/internal/model"
)

func testOffer() *model.Offer {
	return &model.Offer{
		ID:               42,
		Title:            "Supply Chain Analyst",
		OrganizationName: "Globex",
		CityName:         "Singapore",
		CountryNameEn:    "Singapore",
		StartDate:        time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		DurationMonths:   24,
		Stipend:          3100,
		Teleworking:      true,
	}
}

func TestSendOffer(t *testing.T) {
	var payload webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json",
				r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			w.WriteHeader(http.StatusNoContent)
		}))
	defer srv.Close()

	err := NewClient().SendOffer(t.Context(), srv.URL, testOffer(),
		"Asia alerts")
	require.NoError(t, err)

	require.Len(t, payload.Embeds, 1)
	e := payload.Embeds[0]
	assert.Equal(t, "🆕 Supply Chain Analyst", e.Title)
	assert.Contains(t, e.Description, "Asia alerts")
	assert.Equal(t, embedColor, e.Color)
	assert.Equal(t, "https://mon-vie-via.businessfrance.fr/offre/42", e.URL)
	require.Len(t, e.Fields, 6)
	assert.Equal(t, "Globex", e.Fields[0].Value)
	assert.Equal(t, "Singapore, Singapore", e.Fields[1].Value)
	assert.Equal(t, "01/11/2026", e.Fields[2].Value)
	assert.Equal(t, "24 mois", e.Fields[3].Value)
	assert.Equal(t, "3100€/mois", e.Fields[4].Value)
	assert.Equal(t, "Oui", e.Fields[5].Value)
}

func TestSendOffer_webhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message": "Invalid Webhook Token"}`,
				http.StatusUnauthorized)
		}))
	defer srv.Close()

	err := NewClient().SendOffer(t.Context(), srv.URL, testOffer(), "x")
	require.ErrorContains(t, err, "status=401")
	require.ErrorContains(t, err, "Invalid Webhook Token")
}
