// Package upstream talks to the public VIE/VIA offer catalog API.
package upstream // import "jobwatch.app/internal/upstream"

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"jobwatch.app/internal/logging"
	"jobwatch.app/internal/model"
)

// NewClient returns a new upstream catalog client. pageLimit is the number
// of offers requested per page.
func NewClient(endpoint string, timeout time.Duration, pageLimit int,
) *Client {
	return &Client{
		endpoint:  endpoint,
		pageLimit: pageLimit,
		client:    &http.Client{Timeout: timeout},
	}
}

// Client fetches offers from the upstream search endpoint.
type Client struct {
	endpoint  string
	pageLimit int
	client    *http.Client
}

// FetchPage fetches one page of the catalog starting at skip. It returns
// the normalized offers and the total count reported by upstream.
func (c *Client) FetchPage(ctx context.Context, skip int,
) (model.Offers, int, error) {
	body, err := json.Marshal(newSearchBody(c.pageLimit, skip))
	if err != nil {
		return nil, 0, fmt.Errorf("upstream: marshal search body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("upstream: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("upstream: search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, fmt.Errorf("upstream: unexpected status %d: %s",
			resp.StatusCode, string(b))
	}

	var page searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, 0, fmt.Errorf("upstream: decode response: %w", err)
	}

	offers := make(model.Offers, 0, len(page.Result))
	for _, raw := range page.Result {
		o, err := decodeOffer(raw)
		if err != nil {
			logging.FromContext(ctx).Warn("upstream: skip malformed offer",
				slog.Any("error", err))
			continue
		}
		offers = append(offers, o)
	}
	return offers, page.TotalCount, nil
}

// FetchAll drains the whole catalog page by page. Draining stops at
// maxOffers even if upstream keeps returning non-empty pages, so a
// misbehaving pagination cannot run unbounded.
func (c *Client) FetchAll(ctx context.Context, maxOffers int,
) (model.Offers, error) {
	var all model.Offers
	for skip := 0; ; skip += c.pageLimit {
		page, total, err := c.FetchPage(ctx, skip)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		logging.FromContext(ctx).Debug("upstream: fetched page",
			slog.Int("skip", skip),
			slog.Int("page_size", len(page)),
			slog.Int("fetched", len(all)),
			slog.Int("total_count", total))

		if len(all) >= maxOffers {
			all = all[:maxOffers]
			logging.FromContext(ctx).Warn(
				"upstream: reached pagination safety ceiling",
				slog.Int("max_offers", maxOffers))
			break
		}
	}
	return all, nil
}
