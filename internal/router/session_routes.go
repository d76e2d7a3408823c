package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sgp-controller/internal/handler"
)

// RegisterSessions registers session lifecycle, player and history
// endpoints.  load-session answers both GET and POST; older clients post
// to it.
func RegisterSessions(g *echo.Group, s *handler.SessionHandler, p *handler.PlayerHandler) {
	sessions := g.Group("/sessions")
	sessions.GET("/all-sessions", s.List)
	sessions.POST("/new-session", s.Create)
	sessions.GET("/load-session/:sessionId", s.Load)
	sessions.POST("/load-session/:sessionId", s.Load)
	sessions.DELETE("/delete/:sessionId", s.Delete)
	sessions.POST("/:sessionId/players", s.AddPlayer)

	users := g.Group("/user")
	users.GET("/getById/:playerId", p.Get)
	users.PUT("/editPlayer/:playerId", p.Edit)
	users.DELETE("/removePlayer/:playerId", p.Remove)

	g.GET("/historico/all/:id", s.History)
}
