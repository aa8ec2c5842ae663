package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores slots in the profile_storage table so drafts survive a
// storefront restart.
type Postgres struct {
	db dbtx
}

func NewPostgres(db dbtx) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Scope(profileID string) Store {
	return &postgresScope{db: p.db, profileID: profileID}
}

type postgresScope struct {
	db        dbtx
	profileID string
}

func (s *postgresScope) Get(ctx context.Context, key string) (string, bool, error) {
	const q = `
SELECT value
FROM profile_storage
WHERE profile_id = $1 AND key = $2
`
	var value string
	if err := s.db.QueryRow(ctx, q, s.profileID, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *postgresScope) Set(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO profile_storage (profile_id, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (profile_id, key) DO UPDATE
SET value = EXCLUDED.value,
    updated_at = EXCLUDED.updated_at
`
	if _, err := s.db.Exec(ctx, q, s.profileID, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *postgresScope) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM profile_storage WHERE profile_id = $1 AND key = $2`
	if _, err := s.db.Exec(ctx, q, s.profileID, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
