package database

import (
	"context"
	"database/sql"
	"time"

	"stock-alert-bot/internal/types"

	"github.com/pkg/errors"
)

const userColumns = `id, external_id, COALESCE(display_name, ''), created_at`

// GetOrCreateUser returns the user registered under externalID, inserting it first if needed.
// An existing record keeps its original display name.
func (s *Store) GetOrCreateUser(ctx context.Context, externalID int64, displayName string) (*types.User, error) {
	query := `INSERT OR IGNORE INTO users (external_id, display_name, created_at) VALUES (?, ?, ?);`
	if _, err := s.db.ExecContext(ctx, query, externalID, displayName, time.Now().Unix()); err != nil {
		return nil, errors.Wrapf(err, "failed to insert user %d", externalID)
	}
	return s.GetUserByExternalID(ctx, externalID)
}

// GetUser fetches a user by its surrogate id.
func (s *Store) GetUser(ctx context.Context, id int64) (*types.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?;`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get user %d", id)
	}
	return user, nil
}

// GetUserByExternalID fetches a user by chat platform identity.
func (s *Store) GetUserByExternalID(ctx context.Context, externalID int64) (*types.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = ?;`, externalID)
	user, err := scanUser(row)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get user with external id %d", externalID)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*types.User, error) {
	var (
		user      types.User
		createdAt int64
	)
	err := row.Scan(&user.ID, &user.ExternalID, &user.DisplayName, &createdAt)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	return &user, nil
}
