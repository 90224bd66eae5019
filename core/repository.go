package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

// UserRecord is the persisted login identity of a user. Records are written by a
// separate registration flow; this service only reads them.
type UserRecord struct {
	Username       string
	PasswordDigest string
	Role           string
	CreatedAt      time.Time
}

// UserRepository is the read surface over persisted user records.
type UserRepository interface {
	// FindByUsername returns the record and true, or false when no record exists.
	FindByUsername(ctx context.Context, username string) (*UserRecord, bool, error)
}

// PgUserRepository implements UserRepository over the shared connection.
type PgUserRepository struct {
	conn *ConnectionProvider
}

func NewPgUserRepository(conn *ConnectionProvider) *PgUserRepository {
	return &PgUserRepository{conn: conn}
}

func (r *PgUserRepository) FindByUsername(ctx context.Context, username string) (*UserRecord, bool, error) {
	pool, err := r.conn.Conn(ctx)
	if err != nil {
		return nil, false, oops.Code("USER_LOOKUP_UNAVAILABLE").
			With("username", username).
			Wrap(fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
	}

	const q = `SELECT username, password_digest, role, created_at FROM faculty_users WHERE username=$1`
	var u UserRecord
	err = pool.QueryRow(ctx, q, username).Scan(&u.Username, &u.PasswordDigest, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, oops.Code("USER_LOOKUP_FAILED").
			With("operation", "find user by username").
			With("username", username).
			Wrap(fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
	}
	return &u, true, nil
}
