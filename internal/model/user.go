package model // import "jobwatch.app/internal/model"

import "time"

// User is an account owning subscriptions and settings. Session handling and
// the dashboard live outside this service; the API authenticates users with
// API keys only.
type User struct {
	ID          int64      `json:"id" db:"id"`
	Username    string     `json:"username" db:"username"`
	IsAdmin     bool       `json:"is_admin" db:"is_admin"`
	LastLoginAt *time.Time `json:"last_login_at" db:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// APIKey maps a secret token to a user.
type APIKey struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	Token       string     `json:"token" db:"token"`
	Description string     `json:"description" db:"description"`
	LastUsedAt  *time.Time `json:"last_used_at" db:"last_used_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}
