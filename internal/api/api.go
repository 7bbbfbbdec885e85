// Package api implements the REST API of the job alert service.
package api // import "jobwatch.app/internal/api"

import (
	"net/http"
	"runtime"

	"jobwatch.app/internal/http/mux"
	"jobwatch.app/internal/http/response/json"
	"jobwatch.app/internal/notification"
	"jobwatch.app/internal/storage"
	syncsvc "jobwatch.app/internal/sync"
	"jobwatch.app/internal/version"
	"jobwatch.app/internal/worker"
)

const (
	PathPrefix = "/v1"

	// CronPathPrefix holds the endpoints called by an external scheduler,
	// authenticated with the shared cron secret instead of a user API key.
	CronPathPrefix = "/cron"
)

// Deps bundles the services the API exposes over HTTP.
type Deps struct {
	Worker     *worker.Worker
	Syncer     *syncsvc.Service
	Dispatcher *notification.Dispatcher
}

type handler struct {
	store *storage.Storage
	deps  *Deps
}

// Serve declares API routes for the application.
func Serve(m *mux.ServeMux, store *storage.Storage, deps *Deps) {
	handler := &handler{store: store, deps: deps}

	cron := m.PrefixGroup(CronPathPrefix)
	cron.Use(withCronSecret)
	// External schedulers trigger with GET or POST, so no method here.
	cron.HandleFunc("/worker", handler.triggerWorker).
		HandleFunc("/sync", handler.triggerSync).
		HandleFunc("/sync-cities", handler.triggerCitySync)

	m = m.PrefixGroup(PathPrefix)
	m.Use(WithKeyAuth(store), CORS, requestUser)

	m.HandleFunc("GET /subscriptions", handler.getSubscriptions).
		HandleFunc("POST /subscriptions", handler.createSubscription).
		HandleFunc("GET /subscriptions/{subscriptionID}",
			handler.getSubscription).
		HandleFunc("PUT /subscriptions/{subscriptionID}",
			handler.updateSubscription).
		HandleFunc("DELETE /subscriptions/{subscriptionID}",
			handler.removeSubscription).
		HandleFunc("POST /subscriptions/{subscriptionID}/test",
			handler.testSubscription).
		HandleFunc("POST /test-notification", handler.testNotification).
		HandleFunc("POST /offers/search", handler.searchOffers).
		HandleFunc("GET /offers/{offerID}", handler.getOffer).
		HandleFunc("GET /cities", handler.getCities).
		HandleFunc("POST /jobs/worker", handler.triggerWorker).
		HandleFunc("POST /jobs/sync", handler.triggerSync).
		HandleFunc("POST /jobs/sync-cities", handler.triggerCitySync).
		HandleFunc("GET /jobs", handler.getJobRuns).
		HandleFunc("GET /jobs/{jobRunID}", handler.getJobRun).
		HandleFunc("GET /settings", handler.getUserSettings).
		HandleFunc("PUT /settings", handler.updateUserSettings).
		HandleFunc("POST /api-keys", handler.createAPIKey).
		HandleFunc("GET /api-keys", handler.getAPIKeys).
		HandleFunc("DELETE /api-keys/{apiKeyID}", handler.deleteAPIKey).
		HandleFunc("/me", handler.currentUser).
		HandleFunc("/version", handler.versionHandler)
}

func (h *handler) versionHandler(w http.ResponseWriter, r *http.Request) {
	json.OK(w, r, &VersionResponse{
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		GoVersion: runtime.Version(),
		Compiler:  runtime.Compiler,
		Arch:      runtime.GOARCH,
		OS:        runtime.GOOS,
	})
}
