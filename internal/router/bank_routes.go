package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sgp-controller/internal/handler"
)

// RegisterBank registers the money-movement endpoints under /api/banco.
// Every operation is a PUT carrying its arguments in the JSON body.
func RegisterBank(g *echo.Group, h *handler.BankHandler) {
	b := g.Group("/banco")
	b.PUT("/deposito", h.Deposit)
	b.PUT("/saque", h.Withdraw)
	b.PUT("/transferencia", h.Transfer)
	b.PUT("/aluguel", h.PayRent)
	b.PUT("/aluguelAcao", h.PayShareRent)
	b.PUT("/receberDeTodos", h.CollectFromAll)
}
