package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sgp-controller/internal/handler"
)

// RegisterProperties registers the ownership endpoints under
// /api/propriedades.
func RegisterProperties(g *echo.Group, h *handler.PropertyHandler) {
	p := g.Group("/propriedades")
	p.PUT("/buyProp", h.Buy)
	p.PUT("/sellProp", h.Sell)
	p.PUT("/hipotecar", h.Mortgage)
	p.PUT("/buyHouse", h.BuyHouse)
	p.PUT("/sellHouse", h.SellHouse)
	p.PUT("/trocar", h.Swap)
	p.GET("/getById/:propriedadeId", h.Get)
}
