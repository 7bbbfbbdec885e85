package storage // import "jobwatch.app/internal/storage"

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"jobwatch.app/internal/model"
)

// UserSettings returns the notification settings of the given user, or nil
// when the user never saved any.
func (s *Storage) UserSettings(ctx context.Context, userID int64,
) (*model.UserSettings, error) {
	rows, _ := s.db.Query(ctx, `
SELECT
  user_id,
  telegram_bot_token,
  smtp_host,
  smtp_port,
  smtp_username,
  smtp_password,
  smtp_from,
  updated_at
FROM user_settings
WHERE user_id = $1`, userID)

	settings, err := pgx.CollectExactlyOneRow(rows,
		pgx.RowToAddrOfStructByName[model.UserSettings])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf(
			"storage: unable to get settings of user #%d: %w", userID, err)
	}
	return settings, nil
}

// UpdateUserSettings upserts the notification settings of a user.
func (s *Storage) UpdateUserSettings(ctx context.Context,
	settings *model.UserSettings,
) error {
	err := s.db.QueryRow(ctx, `
INSERT INTO user_settings (
  user_id,
  telegram_bot_token,
  smtp_host,
  smtp_port,
  smtp_username,
  smtp_password,
  smtp_from
) VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id) DO UPDATE SET
  telegram_bot_token = excluded.telegram_bot_token,
  smtp_host = excluded.smtp_host,
  smtp_port = excluded.smtp_port,
  smtp_username = excluded.smtp_username,
  smtp_password = excluded.smtp_password,
  smtp_from = excluded.smtp_from,
  updated_at = now()
RETURNING updated_at`,
		settings.UserID,
		settings.TelegramBotToken,
		settings.SMTPHost,
		settings.SMTPPort,
		settings.SMTPUsername,
		settings.SMTPPassword,
		settings.SMTPFrom).
		Scan(&settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf(
			"storage: update settings of user #%d: %w", settings.UserID, err)
	}
	return nil
}
