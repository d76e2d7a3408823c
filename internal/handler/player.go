package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sgp-controller/internal/middleware"
	"github.com/iliyamo/sgp-controller/internal/service"
)

// PlayerHandler serves /api/user.
type PlayerHandler struct {
	Service *service.Service
}

// NewPlayerHandler constructs a PlayerHandler and panics if svc is nil.
func NewPlayerHandler(svc *service.Service) *PlayerHandler {
	if svc == nil {
		panic("nil service passed to NewPlayerHandler")
	}
	return &PlayerHandler{Service: svc}
}

// Get handles GET /api/user/getById/:playerId.
func (h *PlayerHandler) Get(c echo.Context) error {
	id, err := pathID(c, "playerId")
	if err != nil {
		return fail(c, err)
	}
	d, err := h.Service.GetPlayer(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	middleware.TagCache(c, middleware.SessionTag(d.SessionID))
	return c.JSON(http.StatusOK, d)
}

// Edit handles PUT /api/user/editPlayer/:playerId.
func (h *PlayerHandler) Edit(c echo.Context) error {
	id, err := pathID(c, "playerId")
	if err != nil {
		return fail(c, err)
	}
	var req playerRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	p, err := h.Service.EditPlayer(c.Request().Context(), id, req.Name, req.Color)
	if err != nil {
		return fail(c, err)
	}
	middleware.TagCache(c, middleware.SessionTag(p.SessionID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Jogador atualizado com sucesso", "player": p})
}

// Remove handles DELETE /api/user/removePlayer/:playerId.
func (h *PlayerHandler) Remove(c echo.Context) error {
	id, err := pathID(c, "playerId")
	if err != nil {
		return fail(c, err)
	}
	p, err := h.Service.RemovePlayer(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	middleware.TagCache(c, middleware.SessionTag(p.SessionID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Jogador removido com sucesso", "player": p})
}
