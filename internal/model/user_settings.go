package model // import "jobwatch.app/internal/model"

import "time"

// UserSettings holds optional per-user overrides for notification channel
// credentials, one row per user. Empty fields fall back to the process-wide
// defaults from the configuration.
type UserSettings struct {
	UserID           int64     `json:"user_id" db:"user_id"`
	TelegramBotToken string    `json:"telegram_bot_token" db:"telegram_bot_token"`
	SMTPHost         string    `json:"smtp_host" db:"smtp_host"`
	SMTPPort         int       `json:"smtp_port" db:"smtp_port"`
	SMTPUsername     string    `json:"smtp_username" db:"smtp_username"`
	SMTPPassword     string    `json:"smtp_password" db:"smtp_password"`
	SMTPFrom         string    `json:"smtp_from" db:"smtp_from"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// UserSettingsModificationRequest is the payload to upsert user settings.
// All fields are optional.
type UserSettingsModificationRequest struct {
	TelegramBotToken *string `json:"telegram_bot_token"`
	SMTPHost         *string `json:"smtp_host"`
	SMTPPort         *int    `json:"smtp_port"`
	SMTPUsername     *string `json:"smtp_username"`
	SMTPPassword     *string `json:"smtp_password"`
	SMTPFrom         *string `json:"smtp_from"`
}

// Patch applies the non-nil fields of the request to the settings.
func (r *UserSettingsModificationRequest) Patch(s *UserSettings) {
	if r.TelegramBotToken != nil {
		s.TelegramBotToken = *r.TelegramBotToken
	}
	if r.SMTPHost != nil {
		s.SMTPHost = *r.SMTPHost
	}
	if r.SMTPPort != nil {
		s.SMTPPort = *r.SMTPPort
	}
	if r.SMTPUsername != nil {
		s.SMTPUsername = *r.SMTPUsername
	}
	if r.SMTPPassword != nil {
		s.SMTPPassword = *r.SMTPPassword
	}
	if r.SMTPFrom != nil {
		s.SMTPFrom = *r.SMTPFrom
	}
}
