// Package storage defines the persistence interfaces of the access layer.
package storage

import (
	"context"
	"errors"

	"github.com/SolMeet-Labs/access_layer/internal/app/domain/identity"
	"github.com/SolMeet-Labs/access_layer/internal/app/domain/subscription"
)

// Sentinel errors shared by all store implementations.
var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

// RecordStore persists the per-principal subscription record. Writes are
// full-record overwrites, last-writer-wins; there is no optimistic
// concurrency at this layer.
type RecordStore interface {
	// GetSubscription returns the record for a principal. The boolean is
	// false when no record exists, which is not an error.
	GetSubscription(ctx context.Context, principalID string) (subscription.Record, bool, error)

	// PutSubscription overwrites the record for record.PrincipalID,
	// creating it if absent.
	PutSubscription(ctx context.Context, record subscription.Record) error
}

// Directory persists registered users for the identity manager. The secret
// hash is opaque to the directory; verification happens in the manager.
type Directory interface {
	// CreateUser registers a new user. Returns ErrExists (possibly
	// wrapped) when the email is already registered.
	CreateUser(ctx context.Context, email string, secretHash []byte) (identity.Principal, error)

	// LookupUser returns the principal and secret hash for an email. The
	// boolean is false when the email is not registered.
	LookupUser(ctx context.Context, email string) (identity.Principal, []byte, bool, error)
}
