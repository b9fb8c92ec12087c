package identity

import (
	"testing"
	"time"

	domainid "github.com/SolMeet-Labs/access_layer/internal/app/domain/identity"
	svcerrors "github.com/SolMeet-Labs/access_layer/internal/errors"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("session-1", &domainid.Principal{ID: "p-1", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SessionID != "session-1" {
		t.Fatalf("session id: got %s", claims.SessionID)
	}
	if claims.Subject != "p-1" || claims.Email != "a@x.com" {
		t.Fatalf("principal claims: got %+v", claims)
	}
}

func TestAnonymousToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("session-1", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "" || claims.Email != "" {
		t.Fatalf("anonymous token must not carry a principal, got %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a", time.Hour).Issue("session-1", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = NewTokenIssuer("secret-b", time.Hour).Parse(token)
	if !svcerrors.HasCode(err, svcerrors.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer := &TokenIssuer{secret: []byte("test-secret"), ttl: -time.Minute}

	token, err := issuer.Issue("session-1", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = issuer.Parse(token)
	if !svcerrors.HasCode(err, svcerrors.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED for an expired token, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	if _, err := issuer.Parse("not.a.token"); !svcerrors.HasCode(err, svcerrors.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}
