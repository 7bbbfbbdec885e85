package discord // import "jobwatch.app/internal/notification/discord"

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"jobwatch.app/internal/model"
)

const (
	defaultClientTimeout = 10 * time.Second

	embedColor = 0x4f46e5
	footerText = "jobwatch • Alertes VIE/VIA"
)

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields"`
	URL         string       `json:"url"`
	Timestamp   string       `json:"timestamp"`
	Footer      embedFooter  `json:"footer"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

func NewClient() *Client {
	return &Client{wrapped: &http.Client{Timeout: defaultClientTimeout}}
}

type Client struct {
	wrapped *http.Client
}

// SendOffer posts one offer as a structured embed to the webhook URL.
func (c *Client) SendOffer(ctx context.Context, webhookURL string,
	offer *model.Offer, label string,
) error {
	teleworking := "Non"
	if offer.Teleworking {
		teleworking = "Oui"
	}

	payload := &webhookPayload{Embeds: []embed{{
		Title:       "🆕 " + offer.Title,
		Description: fmt.Sprintf("Nouvelle offre pour: **%s**", label),
		Color:       embedColor,
		Fields: []embedField{
			{"🏢 Entreprise", offer.OrganizationName, true},
			{"📍 Lieu", offer.City() + ", " + offer.Country(), true},
			{"📅 Début", offer.StartDate.Format("02/01/2006"), true},
			{"⏱️ Durée", fmt.Sprintf("%d mois", offer.DurationMonths), true},
			{"💶 Indemnité", fmt.Sprintf("%.0f€/mois", offer.Stipend), true},
			{"🏠 Télétravail", teleworking, true},
		},
		URL:       offer.Link(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    embedFooter{Text: footerText},
	}}}

	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notification/discord: encode webhook payload: %w",
			err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL,
		bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("notification/discord: create POST request: %w",
			err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.wrapped.Do(req)
	if err != nil {
		return fmt.Errorf("notification/discord: send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notification/discord: webhook error: status=%d body=%s",
			resp.StatusCode, string(b))
	}
	return nil
}
