package api // import "jobwatch.app/internal/api"

import (
	"errors"
	"net/http"

	"jobwatch.app/internal/http/request"
	"jobwatch.app/internal/http/response/json"
	"jobwatch.app/internal/worker"
)

const defaultJobRunsLimit = 20

// triggerWorker runs the notification job and returns its audit record. A
// concurrent run on another instance yields a conflict.
func (h *handler) triggerWorker(w http.ResponseWriter, r *http.Request) {
	run, err := h.deps.Worker.Run(r.Context())
	if errors.Is(err, worker.ErrAlreadyRunning) {
		json.Conflict(w, r, err)
		return
	} else if err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.OK(w, r, run)
}

func (h *handler) triggerSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.deps.Syncer.SyncOffers(r.Context())
	if err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.OK(w, r, result)
}

func (h *handler) triggerCitySync(w http.ResponseWriter, r *http.Request) {
	result, err := h.deps.Syncer.SyncCities(r.Context())
	if err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.OK(w, r, result)
}

func (h *handler) getJobRuns(w http.ResponseWriter, r *http.Request) {
	limit := request.QueryIntParam(r, "limit", defaultJobRunsLimit)
	runs, err := h.store.JobRuns(r.Context(), limit)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.OK(w, r, runs)
}

func (h *handler) getJobRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.JobRun(r.Context(),
		request.RouteInt64Param(r, "jobRunID"))
	if err != nil {
		json.ServerError(w, r, err)
		return
	} else if run == nil {
		json.NotFound(w, r)
		return
	}
	json.OK(w, r, run)
}
