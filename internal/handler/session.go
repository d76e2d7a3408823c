package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sgp-controller/internal/middleware"
	"github.com/iliyamo/sgp-controller/internal/service"
)

// SessionHandler manages saved games, their players and their history.
type SessionHandler struct {
	Service *service.Service
}

// NewSessionHandler constructs a SessionHandler and panics if svc is nil.
func NewSessionHandler(svc *service.Service) *SessionHandler {
	if svc == nil {
		panic("nil service passed to NewSessionHandler")
	}
	return &SessionHandler{Service: svc}
}

// List handles GET /api/sessions/all-sessions.
func (h *SessionHandler) List(c echo.Context) error {
	sessions, err := h.Service.ListSessions(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	middleware.TagCache(c, middleware.SessionsTag)
	return c.JSON(http.StatusOK, sessions)
}

// Create handles POST /api/sessions/new-session.
func (h *SessionHandler) Create(c echo.Context) error {
	var req sessionRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	players := make([]service.NewPlayer, 0, len(req.Players))
	for _, p := range req.Players {
		players = append(players, service.NewPlayer{Name: p.Name, Color: p.Color, Balance: int64(p.Balance)})
	}
	state, err := h.Service.CreateSession(c.Request().Context(), req.Name, players)
	if err != nil {
		return fail(c, err)
	}
	middleware.TagCache(c, middleware.SessionsTag)
	return c.JSON(http.StatusCreated, state)
}

// Load handles POST and GET /api/sessions/load-session/:sessionId.
func (h *SessionHandler) Load(c echo.Context) error {
	id, err := pathID(c, "sessionId")
	if err != nil {
		return fail(c, err)
	}
	state, err := h.Service.LoadSession(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	middleware.TagCache(c, middleware.SessionTag(id))
	return c.JSON(http.StatusOK, state)
}

// Delete handles DELETE /api/sessions/delete/:sessionId.
func (h *SessionHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "sessionId")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Service.EndSession(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	middleware.TagCache(c, middleware.SessionTag(id), middleware.SessionsTag)
	return c.JSON(http.StatusOK, echo.Map{"message": "Sessão encerrada com sucesso"})
}

// AddPlayer handles POST /api/sessions/:sessionId/players.
func (h *SessionHandler) AddPlayer(c echo.Context) error {
	id, err := pathID(c, "sessionId")
	if err != nil {
		return fail(c, err)
	}
	var req playerRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	p, err := h.Service.AddPlayer(c.Request().Context(), id, service.NewPlayer{Name: req.Name, Color: req.Color, Balance: int64(req.Balance)})
	if err != nil {
		return fail(c, err)
	}
	middleware.TagCache(c, middleware.SessionTag(id))
	return c.JSON(http.StatusCreated, p)
}

// History handles GET /api/historico/all/:id.
func (h *SessionHandler) History(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	entries, err := h.Service.History(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	middleware.TagCache(c, middleware.SessionTag(id))
	return c.JSON(http.StatusOK, entries)
}
