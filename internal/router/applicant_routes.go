package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/grant-portal/internal/handler"
	"github.com/iliyamo/grant-portal/internal/middleware"
)

// RegisterApplicant registers the signed-in user's endpoints.  Ownership of
// individual applications is checked in the handler.
func RegisterApplicant(api *echo.Group, h *handler.ApplicationHandler, key []byte) {
	auth := middleware.SessionAuth(key)
	api.GET("/applications", h.List, auth)
	api.POST("/applications", h.Submit, auth)
	api.GET("/applications/:id", h.Get, auth)
	api.GET("/awards", h.ListAwards, auth)
}
