package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SolMeet-Labs/access_layer/internal/app/domain/identity"
	svcerrors "github.com/SolMeet-Labs/access_layer/internal/errors"
)

// Claims are the session token claims. Subject carries the principal ID and
// is empty for anonymous sessions.
type Claims struct {
	SessionID string `json:"sid"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates an issuer with the given HMAC secret and lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the session; principal may be nil for anonymous
// sessions.
func (t *TokenIssuer) Issue(sessionID string, principal *identity.Principal) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	if principal != nil {
		claims.Subject = principal.ID
		claims.Email = principal.Email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token string and returns its claims.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, svcerrors.Unauthorized("invalid session token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.SessionID == "" {
		return nil, svcerrors.Unauthorized("invalid session token")
	}
	return claims, nil
}
