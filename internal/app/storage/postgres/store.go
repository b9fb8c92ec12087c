// Package postgres provides a PostgreSQL-backed record store and user
// directory.
//
// Expected schema:
//
//	CREATE TABLE users (
//	    id          TEXT PRIMARY KEY,
//	    email       TEXT NOT NULL UNIQUE,
//	    secret_hash BYTEA NOT NULL
//	);
//	CREATE TABLE subscriptions (
//	    principal_id TEXT PRIMARY KEY,
//	    subscribed   BOOLEAN NOT NULL
//	);
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/SolMeet-Labs/access_layer/internal/app/domain/identity"
	"github.com/SolMeet-Labs/access_layer/internal/app/domain/subscription"
	"github.com/SolMeet-Labs/access_layer/internal/app/storage"
)

const uniqueViolation = "23505"

// Store implements storage.RecordStore and storage.Directory on PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.RecordStore = (*Store)(nil)
var _ storage.Directory = (*Store)(nil)

// New wraps an existing database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return New(db), nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetSubscription(ctx context.Context, principalID string) (subscription.Record, bool, error) {
	var record subscription.Record
	err := s.db.GetContext(ctx, &record,
		`SELECT principal_id, subscribed FROM subscriptions WHERE principal_id = $1`, principalID)
	if errors.Is(err, sql.ErrNoRows) {
		return subscription.Record{}, false, nil
	}
	if err != nil {
		return subscription.Record{}, false, fmt.Errorf("get subscription: %w", err)
	}
	return record, true, nil
}

func (s *Store) PutSubscription(ctx context.Context, record subscription.Record) error {
	if record.PrincipalID == "" {
		return fmt.Errorf("principal id is required")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (principal_id, subscribed) VALUES ($1, $2)
		 ON CONFLICT (principal_id) DO UPDATE SET subscribed = EXCLUDED.subscribed`,
		record.PrincipalID, record.Subscribed)
	if err != nil {
		return fmt.Errorf("put subscription: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, email string, secretHash []byte) (identity.Principal, error) {
	principal := identity.Principal{
		ID:    uuid.NewString(),
		Email: email,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, secret_hash) VALUES ($1, $2, $3)`,
		principal.ID, strings.ToLower(strings.TrimSpace(email)), secretHash)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return identity.Principal{}, fmt.Errorf("user %s: %w", email, storage.ErrExists)
		}
		return identity.Principal{}, fmt.Errorf("create user: %w", err)
	}
	return principal, nil
}

func (s *Store) LookupUser(ctx context.Context, email string) (identity.Principal, []byte, bool, error) {
	var row struct {
		ID         string `db:"id"`
		Email      string `db:"email"`
		SecretHash []byte `db:"secret_hash"`
	}
	err := s.db.GetContext(ctx, &row,
		`SELECT id, email, secret_hash FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return identity.Principal{}, nil, false, nil
	}
	if err != nil {
		return identity.Principal{}, nil, false, fmt.Errorf("lookup user: %w", err)
	}

	return identity.Principal{ID: row.ID, Email: row.Email}, row.SecretHash, true, nil
}
