package middleware

import (
	"net/http"
	"strings"

	"github.com/atelierfoto/session-service/internal/auth"
	"github.com/atelierfoto/session-service/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const identityContextKey = "identity"

// Identity validates the Bearer token and resolves the subject into a full
// identity (user plus active roles and permissions) loaded fresh per
// request. Handlers read it back with IdentityFrom.
func Identity(secret string, users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid claims")
			}
			sub, ok := claims["sub"].(float64)
			if !ok || sub <= 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
			}

			user, err := users.FindWithRoles(c.Request().Context(), uint(sub))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
			}

			c.Set(identityContextKey, auth.NewIdentity(user))
			return next(c)
		}
	}
}

// IdentityFrom returns the request's resolved identity, or nil when the
// route is not wrapped by Identity.
func IdentityFrom(c echo.Context) *auth.Identity {
	id, _ := c.Get(identityContextKey).(*auth.Identity)
	return id
}
