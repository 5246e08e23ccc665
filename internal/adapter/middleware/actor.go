package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"ecobank-loans/internal/domain/account"

	"github.com/labstack/echo/v4"
)

// HeaderAccountID carries the caller's account id, set by the upstream
// identity provider.
const HeaderAccountID = "Ax-Account-Id"

const actorKey = "actor_id"

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

// Actor requires a well-formed account id header and stores it on the context.
func Actor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(HeaderAccountID))
			if id == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing " + HeaderAccountID})
			}
			if !reHex32.MatchString(id) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid " + HeaderAccountID})
			}
			c.Set(actorKey, id)
			return next(c)
		}
	}
}

// ActorID returns the id stored by Actor, or "".
func ActorID(c echo.Context) string {
	id, _ := c.Get(actorKey).(string)
	return id
}

// RequireManager must run after Actor.
func RequireManager(auth account.Authorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !auth.IsManager(ActorID(c)) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "manager only"})
			}
			return next(c)
		}
	}
}
