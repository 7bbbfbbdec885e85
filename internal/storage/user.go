package storage // import "jobwatch.app/internal/storage"

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"jobwatch.app/internal/model"
)

// CreateUser stores a new user and fills in the generated fields.
func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	err := s.db.QueryRow(ctx, `
INSERT INTO users (username, is_admin)
VALUES ($1, $2)
RETURNING id, created_at`,
		user.Username, user.IsAdmin).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("storage: create user %q: %w", user.Username, err)
	}
	return nil
}

// UserByID finds a user by the ID, or nil when it doesn't exist.
func (s *Storage) UserByID(ctx context.Context, id int64,
) (*model.User, error) {
	rows, _ := s.db.Query(ctx, `
SELECT id, username, is_admin, last_login_at, created_at
FROM users
WHERE id = $1`, id)
	return oneUser(rows, fmt.Sprintf("#%d", id))
}

// UserByUsername finds a user by the username, or nil when it doesn't exist.
func (s *Storage) UserByUsername(ctx context.Context, username string,
) (*model.User, error) {
	rows, _ := s.db.Query(ctx, `
SELECT id, username, is_admin, last_login_at, created_at
FROM users
WHERE username = lower($1)`, username)
	return oneUser(rows, username)
}

// UserByAPIKey returns a user by using the given API token, or nil when no
// key matches.
func (s *Storage) UserByAPIKey(ctx context.Context, token string,
) (*model.User, error) {
	rows, _ := s.db.Query(ctx, `
SELECT u.id, u.username, u.is_admin, u.last_login_at, u.created_at
FROM users u
     LEFT JOIN api_keys k ON k.user_id = u.id
WHERE k.token = $1`, token)
	return oneUser(rows, "by API key")
}

func oneUser(rows pgx.Rows, name string) (*model.User, error) {
	user, err := pgx.CollectExactlyOneRow(rows,
		pgx.RowToAddrOfStructByName[model.User])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("storage: unable to fetch user %s: %w",
			name, err)
	}
	return user, nil
}

// SetLastLogin updates the last login date of a user.
func (s *Storage) SetLastLogin(ctx context.Context, userID int64) error {
	_, err := s.db.Exec(ctx, `
UPDATE users SET last_login_at = now() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("storage: set last login of user #%d: %w",
			userID, err)
	}
	return nil
}

func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	rows, _ := s.db.Query(ctx, `SELECT count(*) FROM users`)
	count, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("storage: count users: %w", err)
	}
	return count, nil
}
