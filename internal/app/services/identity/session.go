// Package identity wraps the identity provider boundary: sessions, the
// principal-changed stream, credential checks and session tokens.
package identity

import (
	"sync"

	"github.com/SolMeet-Labs/access_layer/internal/app/domain/identity"
)

// ChangeFunc receives principal-changed notifications. A nil principal
// means the session is anonymous.
type ChangeFunc func(*identity.Principal)

// Session is one identity session: the unit a client keeps open for the
// lifetime of its interaction. It holds the current principal and fans out
// principal-changed events to subscribers in order.
type Session struct {
	id string

	// notifyMu serializes notifications so every subscriber observes
	// login/logout events in the order they happened.
	notifyMu sync.Mutex

	mu        sync.Mutex
	principal *identity.Principal
	subs      map[int]ChangeFunc
	nextSub   int
}

func newSession(id string) *Session {
	return &Session{
		id:   id,
		subs: make(map[int]ChangeFunc),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Principal returns the currently bound principal, or nil when anonymous.
func (s *Session) Principal() *identity.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.principal
}

// Subscribe registers a change handler. It fires immediately with the
// current principal and again on every subsequent login or logout. The
// returned function removes the subscription.
func (s *Session) Subscribe(fn ChangeFunc) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	current := s.principal
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// setPrincipal binds (or clears) the principal and notifies subscribers.
func (s *Session) setPrincipal(p *identity.Principal) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.principal = p
	fns := make([]ChangeFunc, 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}
