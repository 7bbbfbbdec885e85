package api // import "jobwatch.app/internal/api"

import (
	json_parser "encoding/json"
	"net/http"

	"jobwatch.app/internal/http/request"
	"jobwatch.app/internal/http/response/json"
	"jobwatch.app/internal/model"
	"jobwatch.app/internal/validator"
)

func (h *handler) currentUser(w http.ResponseWriter, r *http.Request) {
	json.OK(w, r, request.User(r))
}

func (h *handler) getUserSettings(w http.ResponseWriter, r *http.Request) {
	userID := request.UserID(r)
	settings, err := h.store.UserSettings(r.Context(), userID)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}
	if settings == nil {
		settings = &model.UserSettings{UserID: userID}
	}
	json.OK(w, r, settings)
}

func (h *handler) updateUserSettings(w http.ResponseWriter, r *http.Request) {
	var modifyRequest model.UserSettingsModificationRequest
	if err := json_parser.NewDecoder(r.Body).Decode(&modifyRequest); err != nil {
		json.BadRequest(w, r, err)
		return
	}

	err := validator.ValidateUserSettingsModification(&modifyRequest)
	if err != nil {
		json.BadRequest(w, r, err)
		return
	}

	ctx := r.Context()
	userID := request.UserID(r)
	settings, err := h.store.UserSettings(ctx, userID)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}
	if settings == nil {
		settings = &model.UserSettings{UserID: userID}
	}

	modifyRequest.Patch(settings)
	if err := h.store.UpdateUserSettings(ctx, settings); err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.OK(w, r, settings)
}
