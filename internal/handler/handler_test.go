package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sgp-controller/internal/catalog"
	"github.com/iliyamo/sgp-controller/internal/handler"
	"github.com/iliyamo/sgp-controller/internal/model"
	"github.com/iliyamo/sgp-controller/internal/repository/memstore"
	"github.com/iliyamo/sgp-controller/internal/router"
	"github.com/iliyamo/sgp-controller/internal/service"
)

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	store := memstore.New()
	c, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	if err := catalog.Seed(context.Background(), store, c); err != nil {
		t.Fatal(err)
	}
	svc := service.New(store)
	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler
	router.RegisterRoutes(e, store)
	api := e.Group("/api")
	router.RegisterBank(api, handler.NewBankHandler(svc))
	router.RegisterProperties(api, handler.NewPropertyHandler(svc))
	router.RegisterSessions(api, handler.NewSessionHandler(svc), handler.NewPlayerHandler(svc))
	return e
}

func do(t *testing.T, e *echo.Echo, method, path, body string, out any) int {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

type message struct {
	Message string `json:"message"`
	Valor   int64  `json:"valor"`
}

func newSession(t *testing.T, e *echo.Echo) model.SessionState {
	t.Helper()
	var state model.SessionState
	body := `{"nome":"mesa","jogadores":[{"nome":"Ana","cor":"red"},{"nome":"Bia","cor":"blue","saldo":"3000"}]}`
	if code := do(t, e, http.MethodPost, "/api/sessions/new-session", body, &state); code != http.StatusCreated {
		t.Fatalf("new-session status %d", code)
	}
	return state
}

func TestHealth(t *testing.T) {
	e := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz %d %q", rec.Code, rec.Body.String())
	}
}

func TestBankFlow(t *testing.T) {
	e := newServer(t)
	s := newSession(t, e)
	ana, bia := s.Players[0], s.Players[1]
	if bia.Balance != 3000 {
		t.Fatalf("Bia starts with %d", bia.Balance)
	}

	var m message
	body := `{"userId":` + itoa(ana.ID) + `,"sessionId":"` + itoa(s.Session.ID) + `","valor":500}`
	if code := do(t, e, http.MethodPut, "/api/banco/deposito", body, &m); code != http.StatusOK {
		t.Fatalf("deposit status %d: %s", code, m.Message)
	}
	if m.Message != "Depósito de R$ 500 para o jogador Ana realizado com sucesso!" {
		t.Fatalf("message %q", m.Message)
	}

	body = `{"pagadorId":` + itoa(bia.ID) + `,"recebedorId":` + itoa(ana.ID) + `,"sessionId":` + itoa(s.Session.ID) + `,"valor":5000}`
	if code := do(t, e, http.MethodPut, "/api/banco/transferencia", body, &m); code != http.StatusBadRequest {
		t.Fatalf("overdraft status %d", code)
	}
	if m.Message != "Saldo insuficiente" {
		t.Fatalf("message %q", m.Message)
	}

	var h []model.HistoryEntry
	if code := do(t, e, http.MethodGet, "/api/historico/all/"+itoa(s.Session.ID), "", &h); code != http.StatusOK {
		t.Fatalf("history status %d", code)
	}
	if len(h) != 1 || h[0].Kind != model.KindDeposit || h[0].Detail != "Ana depositou R$ 500" {
		t.Fatalf("history %+v", h)
	}
}

func TestErrorStatuses(t *testing.T) {
	e := newServer(t)
	s := newSession(t, e)
	ana := s.Players[0]
	sid := itoa(s.Session.ID)

	cases := []struct {
		name, method, path, body string
		want                     int
	}{
		{"missing player", http.MethodPut, "/api/banco/saque", `{"userId":999,"sessionId":` + sid + `,"valor":1}`, http.StatusNotFound},
		{"missing fields", http.MethodPut, "/api/banco/deposito", `{}`, http.StatusBadRequest},
		{"bad number", http.MethodPut, "/api/banco/deposito", `{"userId":"abc"}`, http.StatusBadRequest},
		{"self transfer", http.MethodPut, "/api/banco/transferencia", `{"pagadorId":` + itoa(ana.ID) + `,"recebedorId":` + itoa(ana.ID) + `,"sessionId":` + sid + `,"valor":1}`, http.StatusBadRequest},
		{"bad path id", http.MethodGet, "/api/user/getById/zero", "", http.StatusBadRequest},
		{"missing session", http.MethodGet, "/api/sessions/load-session/999", "", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/api/nope", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var m message
			if code := do(t, e, tc.method, tc.path, tc.body, &m); code != tc.want {
				t.Fatalf("status %d, want %d (%s)", code, tc.want, m.Message)
			}
			if m.Message == "" {
				t.Fatal("empty message")
			}
		})
	}
}

func TestPropertyFlow(t *testing.T) {
	e := newServer(t)
	s := newSession(t, e)
	ana, bia := s.Players[0], s.Players[1]
	sid := itoa(s.Session.ID)

	var buy struct {
		Message     string          `json:"message"`
		Valor       int64           `json:"valor"`
		Propriedade model.Ownership `json:"propriedade"`
	}
	body := `{"propriedadeId":1,"sessionId":` + sid + `,"userId":` + itoa(ana.ID) + `}`
	if code := do(t, e, http.MethodPut, "/api/propriedades/buyProp", body, &buy); code != http.StatusOK {
		t.Fatalf("buy status %d: %s", code, buy.Message)
	}
	if buy.Valor != 600 || !buy.Propriedade.OwnedBy(ana.ID) {
		t.Fatalf("buy response %+v", buy)
	}

	var m message
	body = `{"propriedadeId":1,"sessionId":` + sid + `,"userId":` + itoa(bia.ID) + `}`
	if code := do(t, e, http.MethodPut, "/api/propriedades/buyProp", body, &m); code != http.StatusConflict {
		t.Fatalf("second buy status %d", code)
	}

	body = `{"sessionId":` + sid + `,"pagadorId":` + itoa(bia.ID) + `,"sessionPossesId":` + itoa(buy.Propriedade.ID) + `}`
	if code := do(t, e, http.MethodPut, "/api/banco/aluguel", body, &m); code != http.StatusOK {
		t.Fatalf("rent status %d: %s", code, m.Message)
	}
	if m.Message != "Aluguel pago" || m.Valor != 20 {
		t.Fatalf("rent response %+v", m)
	}

	var d model.PlayerDetail
	if code := do(t, e, http.MethodGet, "/api/user/getById/"+itoa(ana.ID), "", &d); code != http.StatusOK {
		t.Fatalf("player status %d", code)
	}
	if d.Balance != service.DefaultInitialBalance-600+20 || len(d.Properties) != 1 {
		t.Fatalf("player detail %+v", d)
	}

	var p model.Property
	if code := do(t, e, http.MethodGet, "/api/propriedades/getById/7", "", &p); code != http.StatusOK {
		t.Fatalf("property status %d", code)
	}
	if p.Name != "Rua Augusta" || p.Rent2 != 300 {
		t.Fatalf("property %+v", p)
	}
}

func TestSessionLifecycle(t *testing.T) {
	e := newServer(t)
	s := newSession(t, e)
	sid := itoa(s.Session.ID)

	var sessions []model.Session
	if code := do(t, e, http.MethodGet, "/api/sessions/all-sessions", "", &sessions); code != http.StatusOK || len(sessions) != 1 {
		t.Fatalf("all-sessions %d %+v", code, sessions)
	}

	var p model.Player
	if code := do(t, e, http.MethodPost, "/api/sessions/"+sid+"/players", `{"nome":"Caio","cor":"green"}`, &p); code != http.StatusCreated {
		t.Fatalf("add player status %d", code)
	}
	var m message
	if code := do(t, e, http.MethodPost, "/api/sessions/"+sid+"/players", `{"nome":"Caio","cor":"pink"}`, &m); code != http.StatusConflict {
		t.Fatalf("duplicate player status %d", code)
	}

	if code := do(t, e, http.MethodPut, "/api/user/editPlayer/"+itoa(p.ID), `{"nome":"Caio","cor":"emerald"}`, &m); code != http.StatusOK {
		t.Fatalf("edit status %d: %s", code, m.Message)
	}
	if code := do(t, e, http.MethodDelete, "/api/user/removePlayer/"+itoa(p.ID), "", &m); code != http.StatusOK {
		t.Fatalf("remove status %d", code)
	}
	if m.Message != "Jogador removido com sucesso" {
		t.Fatalf("message %q", m.Message)
	}

	var state model.SessionState
	if code := do(t, e, http.MethodPost, "/api/sessions/load-session/"+sid, "", &state); code != http.StatusOK {
		t.Fatalf("load status %d", code)
	}
	if len(state.Players) != 2 || len(state.Ownerships) != 28 {
		t.Fatalf("state has %d players and %d records", len(state.Players), len(state.Ownerships))
	}

	if code := do(t, e, http.MethodDelete, "/api/sessions/delete/"+sid, "", &m); code != http.StatusOK {
		t.Fatalf("delete status %d", code)
	}
	if code := do(t, e, http.MethodGet, "/api/sessions/load-session/"+sid, "", &m); code != http.StatusNotFound {
		t.Fatalf("load after delete status %d", code)
	}
}

func TestResponseShapes(t *testing.T) {
	e := newServer(t)
	s := newSession(t, e)
	sid := itoa(s.Session.ID)
	ana := s.Players[0]

	var m message
	body := `{"userId":` + itoa(ana.ID) + `,"sessionId":` + sid + `,"valor":100}`
	if code := do(t, e, http.MethodPut, "/api/banco/deposito", body, &m); code != http.StatusOK {
		t.Fatalf("deposit status %d: %s", code, m.Message)
	}

	var state map[string]json.RawMessage
	if code := do(t, e, http.MethodGet, "/api/sessions/load-session/"+sid, "", &state); code != http.StatusOK {
		t.Fatalf("load status %d", code)
	}
	for _, key := range []string{"id", "nome", "createdAt", "jogadores", "sessionPosses", "historico"} {
		if _, ok := state[key]; !ok {
			t.Errorf("session is missing %q", key)
		}
	}
	if _, ok := state["session"]; ok {
		t.Error("session fields must not be nested")
	}

	var history []map[string]json.RawMessage
	if code := do(t, e, http.MethodGet, "/api/historico/all/"+sid, "", &history); code != http.StatusOK || len(history) != 1 {
		t.Fatalf("history %d %v", code, history)
	}
	for _, key := range []string{"id", "data", "tipo", "detalhes"} {
		if _, ok := history[0][key]; !ok {
			t.Errorf("history entry is missing %q", key)
		}
	}

	var player map[string]json.RawMessage
	if code := do(t, e, http.MethodGet, "/api/user/getById/"+itoa(ana.ID), "", &player); code != http.StatusOK {
		t.Fatalf("player status %d", code)
	}
	for _, key := range []string{"id", "nome", "cor", "saldo", "sessionPosses"} {
		if _, ok := player[key]; !ok {
			t.Errorf("player is missing %q", key)
		}
	}
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
