package api // import "jobwatch.app/internal/api"

import (
	json_parser "encoding/json"
	"net/http"

	"jobwatch.app/internal/filter"
	"jobwatch.app/internal/http/request"
	"jobwatch.app/internal/http/response/json"
	"jobwatch.app/internal/model"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 500
)

// searchOffers previews cached offers matching a filter payload, the same
// matching the notification worker applies.
func (h *handler) searchOffers(w http.ResponseWriter, r *http.Request) {
	var filters model.SubscriptionFilters
	if err := json_parser.NewDecoder(r.Body).Decode(&filters); err != nil {
		json.BadRequest(w, r, err)
		return
	}

	limit := request.QueryIntParam(r, "limit", defaultSearchLimit)
	limit = min(limit, maxSearchLimit)
	offset := request.QueryIntParam(r, "offset", 0)

	ctx := r.Context()
	query := h.store.OfferQueryFromFilters(&filters).
		WithSorting("o.updated_at", "DESC").
		WithSorting("o.id", "ASC")

	total, err := query.CountOffers(ctx)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	offers, err := query.WithLimit(limit).WithOffset(offset).GetOffers(ctx)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}
	offers = filter.Apply(&filters, offers)

	json.OK(w, r, &offersResponse{Total: total, Offers: offers})
}

func (h *handler) getOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := h.store.NewOfferQueryBuilder().
		WithOfferID(request.RouteInt64Param(r, "offerID")).
		GetOffer(r.Context())
	if err != nil {
		json.ServerError(w, r, err)
		return
	} else if offer == nil {
		json.NotFound(w, r)
		return
	}
	json.OK(w, r, offer)
}

func (h *handler) getCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.store.Cities(r.Context())
	if err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.OK(w, r, cities)
}
