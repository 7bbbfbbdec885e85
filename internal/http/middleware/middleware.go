// Package middleware contains HTTP middlewares shared by the API and
// metrics endpoints.
package middleware // import "jobwatch.app/internal/http/middleware"

import (
	"context"
	"net/http"

	"github.com/klauspost/compress/gzhttp"

	"jobwatch.app/internal/config"
	"jobwatch.app/internal/http/mux"
	"jobwatch.app/internal/http/request"
)

type MiddlewareFunc = mux.MiddlewareFunc

// Gzip transparently compresses responses for clients accepting it.
func Gzip(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// ClientIP resolves the remote client address, honoring reverse-proxy
// headers for trusted proxies only, and stores it in the request context.
func ClientIP(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		clientIP := request.FindClientIP(r, config.Opts.TrustedProxy)
		ctx := context.WithValue(r.Context(), request.ClientIPContextKey,
			clientIP)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}
