package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sgp-controller/internal/middleware"
	"github.com/iliyamo/sgp-controller/internal/service"
)

// BankHandler exposes the money-movement operations under /api/banco.
type BankHandler struct {
	Service *service.Service
}

// NewBankHandler constructs a BankHandler and panics if svc is nil.
func NewBankHandler(svc *service.Service) *BankHandler {
	if svc == nil {
		panic("nil service passed to NewBankHandler")
	}
	return &BankHandler{Service: svc}
}

// receipt answers a committed operation and marks the session's cached
// reads as stale.
func receipt(c echo.Context, sessionID int64, r *service.Receipt, body echo.Map) error {
	middleware.TagCache(c, middleware.SessionTag(sessionID))
	if body == nil {
		body = echo.Map{"message": r.Message}
	}
	return c.JSON(http.StatusOK, body)
}

// Deposit handles PUT /api/banco/deposito.
func (h *BankHandler) Deposit(c echo.Context) error {
	var req bankRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	cmd := service.Deposit{PlayerID: int64(req.UserID), SessionID: int64(req.SessionID), Amount: int64(req.Amount)}
	r, err := h.Service.Deposit(c.Request().Context(), cmd)
	if err != nil {
		return fail(c, err)
	}
	return receipt(c, cmd.SessionID, r, nil)
}

// Withdraw handles PUT /api/banco/saque.
func (h *BankHandler) Withdraw(c echo.Context) error {
	var req bankRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	cmd := service.Withdraw{PlayerID: int64(req.UserID), SessionID: int64(req.SessionID), Amount: int64(req.Amount)}
	r, err := h.Service.Withdraw(c.Request().Context(), cmd)
	if err != nil {
		return fail(c, err)
	}
	return receipt(c, cmd.SessionID, r, nil)
}

// Transfer handles PUT /api/banco/transferencia.
func (h *BankHandler) Transfer(c echo.Context) error {
	var req transferRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	cmd := service.Transfer{
		PayerID:   int64(req.PayerID),
		PayeeID:   int64(req.PayeeID),
		SessionID: int64(req.SessionID),
		Amount:    int64(req.Amount),
	}
	r, err := h.Service.Transfer(c.Request().Context(), cmd)
	if err != nil {
		return fail(c, err)
	}
	return receipt(c, cmd.SessionID, r, nil)
}

// PayRent handles PUT /api/banco/aluguel.
func (h *BankHandler) PayRent(c echo.Context) error {
	var req rentRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	cmd := service.PayRent{PayerID: int64(req.PayerID), SessionID: int64(req.SessionID), OwnershipID: int64(req.OwnershipID)}
	r, err := h.Service.PayRent(c.Request().Context(), cmd)
	if err != nil {
		return fail(c, err)
	}
	return receipt(c, cmd.SessionID, r, echo.Map{"message": r.Message, "valor": r.Amount})
}

// PayShareRent handles PUT /api/banco/aluguelAcao.
func (h *BankHandler) PayShareRent(c echo.Context) error {
	var req rentRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	cmd := service.PayShareRent{
		PayerID:     int64(req.PayerID),
		SessionID:   int64(req.SessionID),
		OwnershipID: int64(req.OwnershipID),
		Dice:        int64(req.Dice),
	}
	r, err := h.Service.PayShareRent(c.Request().Context(), cmd)
	if err != nil {
		return fail(c, err)
	}
	return receipt(c, cmd.SessionID, r, echo.Map{"message": r.Message, "valor": r.Amount})
}

// CollectFromAll handles PUT /api/banco/receberDeTodos.
func (h *BankHandler) CollectFromAll(c echo.Context) error {
	var req collectRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	cmd := service.CollectFromAll{CollectorID: int64(req.UserID), SessionID: int64(req.SessionID)}
	r, err := h.Service.CollectFromAll(c.Request().Context(), cmd)
	if err != nil {
		return fail(c, err)
	}
	return receipt(c, cmd.SessionID, r, nil)
}
