package identity

import (
	"context"
	"testing"

	domainid "github.com/SolMeet-Labs/access_layer/internal/app/domain/identity"
	"github.com/SolMeet-Labs/access_layer/internal/app/storage/memory"
	svcerrors "github.com/SolMeet-Labs/access_layer/internal/errors"
)

func newTestManager(t *testing.T) (*Manager, *Session) {
	t.Helper()

	manager := NewManager(memory.New(), NewTokenIssuer("test-secret", 0), nil)
	session, token, err := manager.CreateSession()
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a session token")
	}
	return manager, session
}

func TestSignupBindsPrincipal(t *testing.T) {
	manager, session := newTestManager(t)

	token, err := manager.Signup(context.Background(), session.ID(), "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	principal := session.Principal()
	if principal == nil || principal.Email != "a@x.com" {
		t.Fatalf("signup must bind the principal, got %+v", principal)
	}

	claims, err := manager.Tokens().Parse(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != principal.ID || claims.Email != "a@x.com" {
		t.Fatalf("token must carry the principal, got %+v", claims)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	manager, session := newTestManager(t)

	if _, err := manager.Signup(context.Background(), session.ID(), "a@x.com", "secret1"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, err := manager.Signup(context.Background(), session.ID(), "a@x.com", "secret2")
	if !svcerrors.HasCode(err, svcerrors.CodeAlreadyExists) {
		t.Fatalf("expected AUTH_ALREADY_EXISTS, got %v", err)
	}
}

func TestSignupRejectsWeakCredentials(t *testing.T) {
	manager, session := newTestManager(t)

	cases := []struct {
		name, email, secret string
	}{
		{"empty email", "", "secret1"},
		{"no at sign", "ax.com", "secret1"},
		{"short secret", "a@x.com", "12345"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := manager.Signup(context.Background(), session.ID(), tc.email, tc.secret)
			if !svcerrors.HasCode(err, svcerrors.CodeInvalidCredential) {
				t.Fatalf("expected AUTH_INVALID_CREDENTIAL, got %v", err)
			}
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	manager, session := newTestManager(t)
	if _, err := manager.Signup(context.Background(), session.ID(), "a@x.com", "secret1"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if err := manager.Logout(context.Background(), session.ID()); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := manager.Login(context.Background(), session.ID(), "a@x.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Principal() == nil {
		t.Fatalf("login must bind the principal")
	}
}

func TestLoginWrongSecret(t *testing.T) {
	manager, session := newTestManager(t)
	if _, err := manager.Signup(context.Background(), session.ID(), "a@x.com", "secret1"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if err := manager.Logout(context.Background(), session.ID()); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, err := manager.Login(context.Background(), session.ID(), "a@x.com", "wrong-secret")
	if !svcerrors.HasCode(err, svcerrors.CodeInvalidCredential) {
		t.Fatalf("expected AUTH_INVALID_CREDENTIAL, got %v", err)
	}
	if session.Principal() != nil {
		t.Fatalf("failed login must leave the session anonymous")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	manager, session := newTestManager(t)

	_, err := manager.Login(context.Background(), session.ID(), "nobody@x.com", "secret1")
	if !svcerrors.HasCode(err, svcerrors.CodeInvalidCredential) {
		t.Fatalf("expected AUTH_INVALID_CREDENTIAL, got %v", err)
	}
}

func TestUnknownSessionRejected(t *testing.T) {
	manager, _ := newTestManager(t)

	_, err := manager.Login(context.Background(), "no-such-session", "a@x.com", "secret1")
	if !svcerrors.HasCode(err, svcerrors.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestSubscribeFiresImmediately(t *testing.T) {
	_, session := newTestManager(t)

	var events []*domainid.Principal
	cancel := session.Subscribe(func(p *domainid.Principal) {
		events = append(events, p)
	})
	defer cancel()

	if len(events) != 1 || events[0] != nil {
		t.Fatalf("expected an immediate nil-principal event, got %v", events)
	}
}

func TestPrincipalChangeOrdering(t *testing.T) {
	manager, session := newTestManager(t)

	var events []*domainid.Principal
	cancel := session.Subscribe(func(p *domainid.Principal) {
		events = append(events, p)
	})
	defer cancel()

	if _, err := manager.Signup(context.Background(), session.ID(), "a@x.com", "secret1"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if err := manager.Logout(context.Background(), session.ID()); err != nil {
		t.Fatalf("logout: %v", err)
	}

	// Immediate nil, then login, then logout.
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[1] == nil || events[1].Email != "a@x.com" {
		t.Fatalf("second event must carry the principal, got %+v", events[1])
	}
	if events[2] != nil {
		t.Fatalf("logout must notify with a nil principal, got %+v", events[2])
	}
}

func TestUnsubscribeStopsEvents(t *testing.T) {
	manager, session := newTestManager(t)

	count := 0
	cancel := session.Subscribe(func(*domainid.Principal) { count++ })
	cancel()

	if _, err := manager.Signup(context.Background(), session.ID(), "a@x.com", "secret1"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected only the immediate event, got %d", count)
	}
}
