// Package middleware provides the HTTP middleware for the access layer.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	idsvc "github.com/SolMeet-Labs/access_layer/internal/app/services/identity"
	svcerrors "github.com/SolMeet-Labs/access_layer/internal/errors"
	"github.com/SolMeet-Labs/access_layer/internal/logging"
)

const sessionContextKey = "identity_session"

// Auth validates the Bearer session token and resolves the identity
// session it names. Requests without a valid token are rejected; the
// resolved session is stored on the request context for handlers.
func Auth(manager *idsvc.Manager, log *logging.Logger) gin.HandlerFunc {
	if log == nil {
		log = logging.NewDefault("auth")
	}
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, svcerrors.Unauthorized("missing Authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, svcerrors.Unauthorized("invalid Authorization header format"))
			return
		}

		claims, err := manager.Tokens().Parse(parts[1])
		if err != nil {
			log.WithContext(c.Request.Context()).WithError(err).Warn("token validation failed")
			abortWithError(c, err)
			return
		}

		session, ok := manager.Session(claims.SessionID)
		if !ok {
			abortWithError(c, svcerrors.Unauthorized("unknown session"))
			return
		}

		ctx := logging.WithSessionID(c.Request.Context(), session.ID())
		if claims.Subject != "" {
			ctx = logging.WithUserID(ctx, claims.Subject)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(sessionContextKey, session)
		c.Next()
	}
}

// SessionFromContext returns the identity session resolved by Auth.
func SessionFromContext(c *gin.Context) (*idsvc.Session, bool) {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	session, ok := value.(*idsvc.Session)
	return session, ok
}

func abortWithError(c *gin.Context, err error) {
	svcErr := svcerrors.GetServiceError(err)
	if svcErr == nil {
		svcErr = svcerrors.Internal("authentication failed", err)
	}
	c.AbortWithStatusJSON(svcErr.HTTPStatus, gin.H{"error": svcErr})
}
