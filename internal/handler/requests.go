package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sgp-controller/internal/apperr"
)

// number accepts a JSON integer or a string holding one.  Clients of the
// board send form values as strings.
type number int64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*n = number(v)
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("invalid number %s", b)
	}
	*n = number(v)
	return nil
}

type bankRequest struct {
	UserID    number `json:"userId"`
	SessionID number `json:"sessionId"`
	Amount    number `json:"valor"`
}

type transferRequest struct {
	PayerID   number `json:"pagadorId"`
	PayeeID   number `json:"recebedorId"`
	SessionID number `json:"sessionId"`
	Amount    number `json:"valor"`
}

type rentRequest struct {
	SessionID   number `json:"sessionId"`
	PayerID     number `json:"pagadorId"`
	OwnershipID number `json:"sessionPossesId"`
	Dice        number `json:"numDados"`
}

type collectRequest struct {
	SessionID number `json:"sessionId"`
	UserID    number `json:"userId"`
}

type propertyRequest struct {
	PropertyID number `json:"propriedadeId"`
	SessionID  number `json:"sessionId"`
	UserID     number `json:"userId"`
}

type playerRequest struct {
	Name    string `json:"nome"`
	Color   string `json:"cor"`
	Balance number `json:"saldo"`
}

type sessionRequest struct {
	Name    string          `json:"nome"`
	Players []playerRequest `json:"jogadores"`
}

// bind decodes the request body into v.  Malformed bodies are reported as
// validation errors.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apperr.Wrap(apperr.Validation, "Corpo da requisição inválido", err)
	}
	return nil
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid(fmt.Sprintf("Parâmetro inválido: %s", name))
	}
	return id, nil
}
