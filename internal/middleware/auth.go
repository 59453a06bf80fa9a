package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/Eursukkul/quickfix-service/internal/models"
	"github.com/Eursukkul/quickfix-service/internal/service"
	"github.com/Eursukkul/quickfix-service/pkg/auth"
	"github.com/labstack/echo/v4"
)

const actorKey = "actor"

// Authenticate resolves the caller from a bearer token and stores it on the
// context. Requests without a valid token are rejected with 401.
func Authenticate(tokens *auth.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			actor, err := ActorFromToken(tokens, strings.TrimSpace(raw))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(actorKey, actor)
			return next(c)
		}
	}
}

func ActorFromToken(tokens *auth.TokenManager, raw string) (service.Actor, error) {
	claims, err := tokens.Parse(raw)
	if err != nil {
		return service.Actor{}, err
	}
	id, err := claims.UserID()
	if err != nil {
		return service.Actor{}, err
	}
	role := models.Role(claims.Role)
	if !role.IsValid() {
		return service.Actor{}, auth.ErrInvalidToken
	}
	return service.Actor{ID: id, Role: role}, nil
}

func ActorFrom(c echo.Context) (service.Actor, bool) {
	actor, ok := c.Get(actorKey).(service.Actor)
	return actor, ok
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !slices.Contains(roles, actor.Role) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}
