package storage // import "jobwatch.app/internal/storage"

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"jobwatch.app/internal/crypto"
	"jobwatch.app/internal/model"
)

// APIKeys returns all API keys that belong to the given user.
func (s *Storage) APIKeys(ctx context.Context, userID int64,
) ([]*model.APIKey, error) {
	rows, _ := s.db.Query(ctx, `
SELECT id, user_id, token, description, last_used_at, created_at
FROM api_keys
WHERE user_id = $1
ORDER BY description ASC`, userID)

	keys, err := pgx.CollectRows(rows,
		pgx.RowToAddrOfStructByName[model.APIKey])
	if err != nil {
		return nil, fmt.Errorf("storage: unable to get API keys: %w", err)
	}
	return keys, nil
}

// CreateAPIKey generates a new token for the user and stores it.
func (s *Storage) CreateAPIKey(ctx context.Context, userID int64,
	description string,
) (*model.APIKey, error) {
	key := &model.APIKey{
		UserID:      userID,
		Token:       crypto.GenerateRandomString(32),
		Description: description,
	}

	err := s.db.QueryRow(ctx, `
INSERT INTO api_keys (user_id, token, description)
VALUES ($1, $2, $3)
RETURNING id, created_at`,
		key.UserID, key.Token, key.Description).
		Scan(&key.ID, &key.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("storage: create API key: %w", err)
	}
	return key, nil
}

// RemoveAPIKey deletes an API key of the given user and reports whether the
// key existed.
func (s *Storage) RemoveAPIKey(ctx context.Context, userID, keyID int64,
) (bool, error) {
	result, err := s.db.Exec(ctx, `
DELETE FROM api_keys WHERE user_id = $1 AND id = $2`, userID, keyID)
	if err != nil {
		return false, fmt.Errorf("storage: remove API key #%d: %w", keyID, err)
	}
	return result.RowsAffected() > 0, nil
}

// SetAPIKeyUsed updates the last used date of an API key.
func (s *Storage) SetAPIKeyUsed(ctx context.Context, token string) error {
	_, err := s.db.Exec(ctx, `
UPDATE api_keys SET last_used_at = now() WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("storage: set API key used: %w", err)
	}
	return nil
}
