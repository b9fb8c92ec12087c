package identity

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/SolMeet-Labs/access_layer/internal/app/domain/identity"
	"github.com/SolMeet-Labs/access_layer/internal/app/metrics"
	"github.com/SolMeet-Labs/access_layer/internal/app/storage"
	svcerrors "github.com/SolMeet-Labs/access_layer/internal/errors"
	"github.com/SolMeet-Labs/access_layer/internal/logging"
)

const minSecretLength = 6

// SessionRevoker is implemented by directories that can revoke remote
// sessions on logout. Revocation failure never blocks the local logout.
type SessionRevoker interface {
	RevokeSessions(ctx context.Context, principalID string) error
}

// Manager owns identity sessions and the credential operations on them.
type Manager struct {
	directory storage.Directory
	tokens    *TokenIssuer
	log       *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager backed by the given directory.
func NewManager(directory storage.Directory, tokens *TokenIssuer, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewDefault("identity")
	}
	return &Manager{
		directory: directory,
		tokens:    tokens,
		log:       log,
		sessions:  make(map[string]*Session),
	}
}

// Tokens exposes the token issuer for the HTTP middleware.
func (m *Manager) Tokens() *TokenIssuer { return m.tokens }

// CreateSession opens a new anonymous session and returns it with its
// session token.
func (m *Manager) CreateSession() (*Session, string, error) {
	session := newSession(uuid.NewString())

	token, err := m.tokens.Issue(session.id, nil)
	if err != nil {
		return nil, "", svcerrors.Internal("issue session token", err)
	}

	m.mu.Lock()
	m.sessions[session.id] = session
	m.mu.Unlock()

	return session, token, nil
}

// Session resolves a session by ID.
func (m *Manager) Session(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	return session, ok
}

// Signup registers a new user and, on success, binds the principal to the
// session — mirroring providers that sign the user in on account creation.
func (m *Manager) Signup(ctx context.Context, sessionID, email, secret string) (string, error) {
	session, err := m.resolve(sessionID)
	if err != nil {
		return "", err
	}
	if err := validateCredentials(email, secret); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", svcerrors.Internal("hash secret", err)
	}

	principal, err := m.directory.CreateUser(ctx, email, hash)
	if err != nil {
		if errors.Is(err, storage.ErrExists) {
			return "", svcerrors.AlreadyExists(email)
		}
		return "", svcerrors.AuthNetwork(err)
	}

	return m.bind(session, principal)
}

// Login authenticates the credentials and binds the principal to the
// session, notifying subscribers. Returns the upgraded session token.
func (m *Manager) Login(ctx context.Context, sessionID, email, secret string) (string, error) {
	session, err := m.resolve(sessionID)
	if err != nil {
		return "", err
	}

	principal, hash, found, err := m.directory.LookupUser(ctx, email)
	if err != nil {
		metrics.RecordLogin("error")
		return "", svcerrors.AuthNetwork(err)
	}
	if !found || bcrypt.CompareHashAndPassword(hash, []byte(secret)) != nil {
		metrics.RecordLogin("failure")
		return "", svcerrors.InvalidCredential("")
	}

	token, err := m.bind(session, principal)
	if err != nil {
		return "", err
	}
	metrics.RecordLogin("success")
	return token, nil
}

// Logout clears the session locally and notifies subscribers with a nil
// principal. Remote revocation failure is logged, never surfaced: the
// session must not appear stuck in a logged-in state.
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	session, err := m.resolve(sessionID)
	if err != nil {
		return err
	}

	principal := session.Principal()
	session.setPrincipal(nil)

	if principal != nil {
		if revoker, ok := m.directory.(SessionRevoker); ok {
			if err := revoker.RevokeSessions(ctx, principal.ID); err != nil {
				m.log.WithContext(ctx).WithError(err).
					WithField("principal_id", principal.ID).
					Warn("remote session revocation failed")
			}
		}
	}
	return nil
}

func (m *Manager) bind(session *Session, principal identity.Principal) (string, error) {
	token, err := m.tokens.Issue(session.id, &principal)
	if err != nil {
		return "", svcerrors.Internal("issue session token", err)
	}

	session.setPrincipal(&principal)
	return token, nil
}

func (m *Manager) resolve(sessionID string) (*Session, error) {
	session, ok := m.Session(sessionID)
	if !ok {
		return nil, svcerrors.Unauthorized("unknown session")
	}
	return session, nil
}

func validateCredentials(email, secret string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return svcerrors.InvalidCredential("a valid email is required")
	}
	if len(secret) < minSecretLength {
		return svcerrors.InvalidCredential("secret must be at least 6 characters")
	}
	return nil
}
