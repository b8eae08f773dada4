// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/grant-portal/internal/handler"
	"github.com/iliyamo/grant-portal/internal/metrics"
	"github.com/iliyamo/grant-portal/internal/middleware"
)

// RegisterRoutes registers the unversioned operational endpoints.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers the session endpoints under /api/auth.  Logout
// accepts an optional bearer so it can revoke every session of the caller.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, key []byte) {
	g := api.Group("/auth")
	g.POST("/callback", a.Callback)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, middleware.OptionalSessionAuth(key))
	g.GET("/user", a.CurrentUser, middleware.SessionAuth(key))
}

// RegisterPublic registers unauthenticated endpoints.  GET routes go through
// the response cache.
func RegisterPublic(api *echo.Group, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	api.GET("/countries", p.ListCountries, cache)
	api.GET("/grants", p.ListGrants, cache)
	api.GET("/grants/:id", p.GetGrant, cache)
	api.GET("/stats", p.Stats, cache)

	api.POST("/contact", p.Contact)
	api.POST("/check-referral", p.CheckReferral)
}
