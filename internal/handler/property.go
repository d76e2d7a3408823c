package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sgp-controller/internal/service"
)

// PropertyHandler exposes the ownership operations under /api/propriedades.
type PropertyHandler struct {
	Service *service.Service
}

// NewPropertyHandler constructs a PropertyHandler and panics if svc is nil.
func NewPropertyHandler(svc *service.Service) *PropertyHandler {
	if svc == nil {
		panic("nil service passed to NewPropertyHandler")
	}
	return &PropertyHandler{Service: svc}
}

type propertyOp func(context.Context, service.PropertyAction) (*service.Receipt, error)

// run binds the shared property body and runs op.
func (h *PropertyHandler) run(c echo.Context, op propertyOp) error {
	var req propertyRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	a := service.PropertyAction{PlayerID: int64(req.UserID), SessionID: int64(req.SessionID), PropertyID: int64(req.PropertyID)}
	r, err := op(c.Request().Context(), a)
	if err != nil {
		return fail(c, err)
	}
	return receipt(c, a.SessionID, r, echo.Map{"message": r.Message, "valor": r.Amount, "propriedade": r.Ownership})
}

// Buy handles PUT /api/propriedades/buyProp.
func (h *PropertyHandler) Buy(c echo.Context) error {
	return h.run(c, func(ctx context.Context, a service.PropertyAction) (*service.Receipt, error) {
		return h.Service.BuyProperty(ctx, service.BuyProperty{PropertyAction: a})
	})
}

// Sell handles PUT /api/propriedades/sellProp.
func (h *PropertyHandler) Sell(c echo.Context) error {
	return h.run(c, func(ctx context.Context, a service.PropertyAction) (*service.Receipt, error) {
		return h.Service.SellProperty(ctx, service.SellProperty{PropertyAction: a})
	})
}

// Mortgage handles PUT /api/propriedades/hipotecar.
func (h *PropertyHandler) Mortgage(c echo.Context) error {
	return h.run(c, func(ctx context.Context, a service.PropertyAction) (*service.Receipt, error) {
		return h.Service.MortgageProperty(ctx, service.MortgageProperty{PropertyAction: a})
	})
}

// BuyHouse handles PUT /api/propriedades/buyHouse.
func (h *PropertyHandler) BuyHouse(c echo.Context) error {
	return h.run(c, func(ctx context.Context, a service.PropertyAction) (*service.Receipt, error) {
		return h.Service.BuyHouse(ctx, service.BuyHouse{PropertyAction: a})
	})
}

// SellHouse handles PUT /api/propriedades/sellHouse.
func (h *PropertyHandler) SellHouse(c echo.Context) error {
	return h.run(c, func(ctx context.Context, a service.PropertyAction) (*service.Receipt, error) {
		return h.Service.SellHouse(ctx, service.SellHouse{PropertyAction: a})
	})
}

// Swap handles PUT /api/propriedades/trocar.
func (h *PropertyHandler) Swap(c echo.Context) error {
	return h.run(c, func(ctx context.Context, a service.PropertyAction) (*service.Receipt, error) {
		return h.Service.SwapProperty(ctx, service.SwapProperty{PropertyAction: a})
	})
}

// Get handles GET /api/propriedades/getById/:propriedadeId and returns the
// catalog entry.
func (h *PropertyHandler) Get(c echo.Context) error {
	id, err := pathID(c, "propriedadeId")
	if err != nil {
		return fail(c, err)
	}
	p, err := h.Service.GetProperty(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
