package request // import "jobwatch.app/internal/http/request"

import (
	"context"
	"net/http"
	"strconv"

	"jobwatch.app/internal/model"
)

// ContextKey represents a context key.
type ContextKey int

const (
	UserContextKey ContextKey = iota
	ClientIPContextKey
)

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// User returns the authenticated user stored in the request context, or nil.
func User(r *http.Request) *model.User {
	return getContextValue[*model.User](r, UserContextKey)
}

// UserID returns the id of the authenticated user, or zero.
func UserID(r *http.Request) int64 {
	if user := User(r); user != nil {
		return user.ID
	}
	return 0
}

// IsAdminUser checks if the authenticated user is an administrator.
func IsAdminUser(r *http.Request) bool {
	if user := User(r); user != nil {
		return user.IsAdmin
	}
	return false
}

// ClientIP returns the remote client IP address stored in the context.
func ClientIP(r *http.Request) string {
	if ip := getContextValue[string](r, ClientIPContextKey); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func getContextValue[T any](r *http.Request, key ContextKey) T {
	if v, ok := r.Context().Value(key).(T); ok {
		return v
	}
	var zero T
	return zero
}

// RouteInt64Param returns an URL route parameter as int64.
func RouteInt64Param(r *http.Request, param string) int64 {
	value, err := strconv.ParseInt(r.PathValue(param), 10, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// QueryIntParam returns a query string parameter as integer.
func QueryIntParam(r *http.Request, param string, defaultValue int) int {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(value)
	if err != nil || val < 0 {
		return defaultValue
	}
	return val
}
