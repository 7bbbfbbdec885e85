package telegram

import (
	"fmt"
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
		ID:               7,
		Title:            "Java Developer",
		OrganizationName: "Initech",
		CityName:         "Berlin",
		CountryNameEn:    "Germany",
		StartDate:        time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		DurationMonths:   12,
		MissionType:      model.MissionTypeVIE,
		Stipend:          2200,
	}
}

func fakeBotAPI(t *testing.T, handle http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handle)
	t.Cleanup(srv.Close)
	return NewClientWithEndpoint("test-token", srv.URL+"/bot%s/%s")
}

func TestSendOffer(t *testing.T) {
	var path, chatID, parseMode, text string
	c := fakeBotAPI(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		chatID = r.FormValue("chat_id")
		parseMode = r.FormValue("parse_mode")
		text = r.FormValue("text")
		fmt.Fprint(w, `{"ok": true, "result": {}}`)
	})

	require.NoError(t, c.SendOffer(t.Context(), "123456", testOffer(),
		"Berlin alerts"))

	assert.Equal(t, "/bottest-token/sendMessage", path)
	assert.Equal(t, "123456", chatID)
	assert.Equal(t, "Markdown", parseMode)
	assert.Contains(t, text, "*Nouvelle offre VIE*")
	assert.Contains(t, text, "Java Developer")
	assert.Contains(t, text, "Berlin, Germany")
	assert.Contains(t, text, "15/09/2026")
	assert.Contains(t, text, "https://mon-vie-via.businessfrance.fr/offre/7")
	assert.Contains(t, text, "Berlin alerts")
}

func TestSendOffer_channelTarget(t *testing.T) {
	var chatID string
	c := fakeBotAPI(t, func(w http.ResponseWriter, r *http.Request) {
		chatID = r.FormValue("chat_id")
		fmt.Fprint(w, `{"ok": true, "result": {}}`)
	})

	require.NoError(t, c.SendOffer(t.Context(), "@vie_offers", testOffer(),
		""))
	assert.Equal(t, "@vie_offers", chatID)
}

func TestSendOffer_apiError(t *testing.T) {
	c := fakeBotAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"ok": false, "error_code": 401, "description": "Unauthorized"}`)
	})

	err := c.SendOffer(t.Context(), "123", testOffer(), "")
	require.ErrorContains(t, err, "Unauthorized")
}
