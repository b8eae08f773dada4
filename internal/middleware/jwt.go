package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/grant-portal/internal/utils"
)

// SessionAuth rejects requests without a valid Bearer access token and
// stores the token subject under ContextUserID.
func SessionAuth(key []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			sub, err := utils.ParseAccessToken(key, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(ContextUserID, sub)
			return next(c)
		}
	}
}

// OptionalSessionAuth behaves like SessionAuth when a token is present and
// lets anonymous requests through untouched.  An invalid token is still 401.
func OptionalSessionAuth(key []byte) echo.MiddlewareFunc {
	required := SessionAuth(key)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withAuth := required(next)
		return func(c echo.Context) error {
			if _, ok := bearer(c); !ok {
				return next(c)
			}
			return withAuth(c)
		}
	}
}

func bearer(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}
