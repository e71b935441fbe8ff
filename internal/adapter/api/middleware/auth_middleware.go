package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"storefront/internal/domain/entity"
	"storefront/pkg/errors"
	"storefront/pkg/response"
)

// SessionKey is the echo context key holding the *entity.UserSession.
const SessionKey = "session"

type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*entity.UserSession, error)
}

type AuthMiddleware struct {
	sessions SessionResolver
}

func NewAuthMiddleware(sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
	}
}

// Authenticate rejects requests without a valid bearer token.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := BearerToken(c)
		if !ok {
			return response.Error(c, errors.Unauthenticated("Authorization header is required"))
		}

		session, err := m.sessions.ResolveSession(c.Request().Context(), token)
		if err != nil {
			return response.Error(c, err)
		}

		c.Set(SessionKey, session)
		c.Set("uid", session.UID)
		return next(c)
	}
}

// Optional resolves the session when a token is present and carries on as a
// guest otherwise.
func (m *AuthMiddleware) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := BearerToken(c)
		if !ok {
			return next(c)
		}

		session, err := m.sessions.ResolveSession(c.Request().Context(), token)
		if err == nil {
			c.Set(SessionKey, session)
			c.Set("uid", session.UID)
		}
		return next(c)
	}
}

// BearerToken reads the Authorization header, falling back to the token query
// parameter that browsers use for websocket upgrades.
func BearerToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		token := c.QueryParam("token")
		return token, token != ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Session returns the resolved session, or nil for guests.
func Session(c echo.Context) *entity.UserSession {
	session, _ := c.Get(SessionKey).(*entity.UserSession)
	return session
}
