// Package router maps the game API onto echo routes.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sgp-controller/internal/handler"
)

// RegisterRoutes registers routes that sit outside the /api tree.  The
// health check is used by load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo, store handler.Pinger) {
	e.GET("/healthz", handler.Health(store))
}
