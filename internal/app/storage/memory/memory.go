// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/SolMeet-Labs/access_layer/internal/app/domain/identity"
	"github.com/SolMeet-Labs/access_layer/internal/app/domain/subscription"
	"github.com/SolMeet-Labs/access_layer/internal/app/storage"
)

// Store is an in-memory record store and user directory.
type Store struct {
	mu      sync.RWMutex
	records map[string]subscription.Record
	users   map[string]userEntry // keyed by lowercased email
}

type userEntry struct {
	principal  identity.Principal
	secretHash []byte
}

var _ storage.RecordStore = (*Store)(nil)
var _ storage.Directory = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		records: make(map[string]subscription.Record),
		users:   make(map[string]userEntry),
	}
}

// RecordStore implementation ---------------------------------------------

func (s *Store) GetSubscription(_ context.Context, principalID string) (subscription.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[principalID]
	if !ok {
		return subscription.Record{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutSubscription(_ context.Context, record subscription.Record) error {
	if record.PrincipalID == "" {
		return fmt.Errorf("principal id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.PrincipalID] = record
	return nil
}

// Directory implementation -----------------------------------------------

func (s *Store) CreateUser(_ context.Context, email string, secretHash []byte) (identity.Principal, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" {
		return identity.Principal{}, fmt.Errorf("email is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[key]; exists {
		return identity.Principal{}, fmt.Errorf("user %s: %w", email, storage.ErrExists)
	}

	principal := identity.Principal{
		ID:    uuid.NewString(),
		Email: email,
	}
	hash := make([]byte, len(secretHash))
	copy(hash, secretHash)

	s.users[key] = userEntry{principal: principal, secretHash: hash}
	return principal, nil
}

func (s *Store) LookupUser(_ context.Context, email string) (identity.Principal, []byte, bool, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.users[key]
	if !ok {
		return identity.Principal{}, nil, false, nil
	}

	hash := make([]byte, len(entry.secretHash))
	copy(hash, entry.secretHash)
	return entry.principal, hash, true, nil
}
