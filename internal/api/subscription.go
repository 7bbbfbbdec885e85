package api // import "jobwatch.app/internal/api"

import (
	json_parser "encoding/json"
	"errors"
	"net/http"

	"jobwatch.app/internal/filter"
	"jobwatch.app/internal/http/request"
	"jobwatch.app/internal/http/response/json"
	"jobwatch.app/internal/model"
	"jobwatch.app/internal/notification"
	"jobwatch.app/internal/validator"
)

func (h *handler) getSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.Subscriptions(r.Context(), request.UserID(r))
	if err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.OK(w, r, subs)
}

func (h *handler) getSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.store.Subscription(r.Context(), request.UserID(r),
		request.RouteInt64Param(r, "subscriptionID"))
	if err != nil {
		json.ServerError(w, r, err)
		return
	} else if sub == nil {
		json.NotFound(w, r)
		return
	}
	json.OK(w, r, sub)
}

func (h *handler) createSubscription(w http.ResponseWriter, r *http.Request) {
	var createRequest model.SubscriptionCreationRequest
	if err := json_parser.NewDecoder(r.Body).Decode(&createRequest); err != nil {
		json.BadRequest(w, r, err)
		return
	}

	if err := validator.ValidateSubscriptionCreation(&createRequest); err != nil {
		json.BadRequest(w, r, err)
		return
	}

	sub := &model.Subscription{
		UserID:  request.UserID(r),
		Label:   createRequest.Label,
		Filters: createRequest.Filters,
		Channel: createRequest.Channel,
		Target:  createRequest.Target,
		Active:  true,
	}
	if err := h.store.CreateSubscription(r.Context(), sub); err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.Created(w, r, sub)
}

func (h *handler) updateSubscription(w http.ResponseWriter, r *http.Request) {
	var modifyRequest model.SubscriptionModificationRequest
	if err := json_parser.NewDecoder(r.Body).Decode(&modifyRequest); err != nil {
		json.BadRequest(w, r, err)
		return
	}

	ctx := r.Context()
	sub, err := h.store.Subscription(ctx, request.UserID(r),
		request.RouteInt64Param(r, "subscriptionID"))
	if err != nil {
		json.ServerError(w, r, err)
		return
	} else if sub == nil {
		json.NotFound(w, r)
		return
	}

	err = validator.ValidateSubscriptionModification(&modifyRequest, sub)
	if err != nil {
		json.BadRequest(w, r, err)
		return
	}

	modifyRequest.Patch(sub)
	if err := h.store.UpdateSubscription(ctx, sub); err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.OK(w, r, sub)
}

func (h *handler) removeSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := request.UserID(r)
	id := request.RouteInt64Param(r, "subscriptionID")

	exists, err := h.store.SubscriptionExists(ctx, userID, id)
	if err != nil {
		json.ServerError(w, r, err)
		return
	} else if !exists {
		json.NotFound(w, r)
		return
	}

	if err := h.store.RemoveSubscription(ctx, userID, id); err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.NoContent(w, r)
}

// testSubscription delivers the most recent matching offer through the
// subscription's channel, so a user can verify their notification setup.
func (h *handler) testSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := request.UserID(r)

	sub, err := h.store.Subscription(ctx, userID,
		request.RouteInt64Param(r, "subscriptionID"))
	if err != nil {
		json.ServerError(w, r, err)
		return
	} else if sub == nil {
		json.NotFound(w, r)
		return
	}

	offers, err := h.store.MatchOffers(ctx, &sub.Filters)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	offer := sampleOffer(sub.Label)
	if matched := filter.Apply(&sub.Filters, offers); len(matched) > 0 {
		offer = matched[0]
	}

	settings, err := h.store.UserSettings(ctx, userID)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	err = h.deps.Dispatcher.Send(ctx, sub, settings, offer)
	if errors.Is(err, notification.ErrNotConfigured) {
		json.BadRequest(w, r, err)
		return
	} else if err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.NoContent(w, r)
}

// testNotification sends one synthetic offer to an arbitrary channel and
// target, so a user can verify delivery before saving any subscription.
func (h *handler) testNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var testRequest model.TestNotificationRequest
	if err := json_parser.NewDecoder(r.Body).Decode(&testRequest); err != nil {
		json.BadRequest(w, r, err)
		return
	}

	if err := validator.ValidateTestNotification(&testRequest); err != nil {
		json.BadRequest(w, r, err)
		return
	}

	settings, err := h.store.UserSettings(ctx, request.UserID(r))
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	sub := &model.Subscription{
		Label:   "Test",
		Channel: testRequest.Channel,
		Target:  testRequest.Target,
	}
	err = h.deps.Dispatcher.Send(ctx, sub, settings, sampleOffer(sub.Label))
	if errors.Is(err, notification.ErrNotConfigured) {
		json.BadRequest(w, r, err)
		return
	} else if err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.NoContent(w, r)
}

// sampleOffer is sent by the subscription test endpoint when the offer cache
// holds nothing matching the subscription.
func sampleOffer(label string) *model.Offer {
	return &model.Offer{
		Reference:        "TEST-0000",
		Title:            "Notification de test: " + label,
		OrganizationName: "jobwatch",
		CityName:         "Paris",
		CountryName:      "France",
		MissionType:      model.MissionTypeVIE,
	}
}
