package handler

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/grant-portal/internal/middleware"
)

// dbTimeout bounds the storage work of a single request.
const dbTimeout = 5 * time.Second

var errNoUser = errors.New("no authenticated user in context")

// getUserID returns the session subject set by middleware.SessionAuth.
func getUserID(c echo.Context) (string, error) {
	if id := middleware.UserID(c); id != "" {
		return id, nil
	}
	return "", errNoUser
}
