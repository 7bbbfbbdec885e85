package api // import "jobwatch.app/internal/api"

import (
	json_parser "encoding/json"
	"net/http"

	"jobwatch.app/internal/http/request"
	"jobwatch.app/internal/http/response/json"
	"jobwatch.app/internal/validator"
)

type apiKeyCreationRequest struct {
	Description string `json:"description"`
}

func (h *handler) createAPIKey(w http.ResponseWriter, r *http.Request) {
	var createRequest apiKeyCreationRequest
	if err := json_parser.NewDecoder(r.Body).Decode(&createRequest); err != nil {
		json.BadRequest(w, r, err)
		return
	}

	if err := validator.ValidateAPIKeyCreation(
		createRequest.Description); err != nil {
		json.BadRequest(w, r, err)
		return
	}

	apiKey, err := h.store.CreateAPIKey(r.Context(), request.UserID(r),
		createRequest.Description)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.Created(w, r, apiKey)
}

func (h *handler) getAPIKeys(w http.ResponseWriter, r *http.Request) {
	apiKeys, err := h.store.APIKeys(r.Context(), request.UserID(r))
	if err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.OK(w, r, apiKeys)
}

func (h *handler) deleteAPIKey(w http.ResponseWriter, r *http.Request) {
	affected, err := h.store.RemoveAPIKey(r.Context(), request.UserID(r),
		request.RouteInt64Param(r, "apiKeyID"))
	if err != nil {
		json.ServerError(w, r, err)
		return
	} else if !affected {
		json.NotFound(w, r)
		return
	}
	json.NoContent(w, r)
}
