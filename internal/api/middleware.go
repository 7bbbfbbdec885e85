package api // import "jobwatch.app/internal/api"

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"jobwatch.app/internal/config"
	"jobwatch.app/internal/http/middleware"
	"jobwatch.app/internal/http/request"
	"jobwatch.app/internal/http/response/json"
	"jobwatch.app/internal/logging"
	"jobwatch.app/internal/storage"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods",
			"GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers",
			"X-Auth-Token, Authorization, Content-Type, Accept")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Max-Age", "3600")
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if request.User(r) == nil {
			logging.FromContext(r.Context()).Warn(
				"[API] Request without a valid API key",
				slog.Bool("authentication_failed", true))
			json.Unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithKeyAuth authenticates the request with an API key from the
// X-Auth-Token header or an Authorization bearer token.
func WithKeyAuth(store *storage.Storage) middleware.MiddlewareFunc {
	fn := func(next http.Handler) http.Handler {
		return &keyAuth{store: store, next: next}
	}
	return fn
}

type keyAuth struct {
	store *storage.Storage
	next  http.Handler
}

func (self *keyAuth) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Auth-Token")
	if token == "" {
		token = bearerToken(r)
	}
	if token == "" {
		self.next.ServeHTTP(w, r)
		return
	}

	ctx := r.Context()
	log := logging.FromContext(ctx).With(
		slog.String("client_ip", request.ClientIP(r)),
		slog.String("user_agent", r.UserAgent()))

	user, err := self.store.UserByAPIKey(ctx, token)
	if err != nil {
		json.ServerError(w, r, err)
		return
	} else if user == nil {
		log.Warn("[API] No user found with the provided API key",
			slog.Bool("authentication_failed", true))
		json.Unauthorized(w, r)
		return
	}

	log.Debug("[API] User authenticated with an API key",
		slog.String("username", user.Username),
		slog.Bool("authentication_successful", true))

	lastLogin := user.LastLoginAt
	if lastLogin == nil || time.Since(*lastLogin) > 5*time.Minute {
		if err := self.store.SetLastLogin(ctx, user.ID); err != nil {
			json.ServerError(w, r, err)
			return
		}
	}
	if err := self.store.SetAPIKeyUsed(ctx, token); err != nil {
		json.ServerError(w, r, err)
		return
	}

	middleware.AccessLogUser(ctx, user)
	self.next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}
	return ""
}

// withCronSecret guards scheduler endpoints with the shared cron secret,
// accepted as a bearer token or a "secret" query parameter.
func withCronSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := config.Opts.CronSecret()
		if secret == "" {
			logging.FromContext(r.Context()).Warn(
				"[API] Cron endpoint called without CRON_SECRET configured")
			json.Forbidden(w, r)
			return
		}

		given := bearerToken(r)
		if given == "" {
			given = r.URL.Query().Get("secret")
		}
		if subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
			logging.FromContext(r.Context()).Warn(
				"[API] Invalid cron secret",
				slog.String("client_ip", request.ClientIP(r)),
				slog.Bool("authentication_failed", true))
			json.Unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
