package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/iliyamo/sgp-controller/internal/model"
	"github.com/iliyamo/sgp-controller/internal/repository"
	"github.com/iliyamo/sgp-controller/internal/repository/memstore"
)

func TestDefaultBoard(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if len(c.Properties) != 28 {
		t.Errorf("properties = %d, want 28", len(c.Properties))
	}
	want := map[string]int{
		"Verde-Claro": 3, "Verde-Escuro": 3, "Vermelho": 3, "Azul": 3,
		"Amarelo": 3, "Laranja": 3, "Rosa": 2, "Roxo": 2, "Preto": 6,
	}
	for _, g := range c.Groups {
		if want[g.Name] != g.Total {
			t.Errorf("group %s total = %d, want %d", g.Name, g.Total, want[g.Name])
		}
	}
	for _, p := range c.Properties {
		if p.Group == "Preto" && p.Type != model.PropertyShare {
			t.Errorf("%s should be a share", p.Name)
		}
		if p.Mortgage <= 0 || p.Cost <= 0 {
			t.Errorf("%s has no price", p.Name)
		}
	}
}

func TestParseRejectsWrongTotal(t *testing.T) {
	data := `{"grupos":[{"nome":"Rosa","total":2}],"propriedades":[
		{"id":1,"nome":"A","grupo_cor":"Rosa","tipo":"normal","custo_compra":1,"aluguel_base":1,"aluguel_1c":1,"aluguel_2c":1,"aluguel_3c":1,"aluguel_4c":1,"aluguel_hotel":1,"custo_casa":1,"hipoteca":1}]}`
	_, err := Parse([]byte(data))
	if err == nil || !strings.Contains(err.Error(), "total 2") {
		t.Fatalf("err = %v, want total mismatch", err)
	}
}

func TestParseRejectsUnknownGroup(t *testing.T) {
	data := `{"grupos":[],"propriedades":[{"id":1,"nome":"A","grupo_cor":"Rosa","tipo":"normal"}]}`
	if _, err := Parse([]byte(data)); err == nil {
		t.Fatal("expected unknown group error")
	}
}

func TestSeedIsRepeatable(t *testing.T) {
	ctx := context.Background()
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	store := memstore.New()
	for i := 0; i < 2; i++ {
		if err := Seed(ctx, store, c); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	_ = store.View(ctx, func(tx repository.Tx) error {
		props, err := tx.ListProperties(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(props) != len(c.Properties) {
			t.Errorf("stored %d properties, want %d", len(props), len(c.Properties))
		}
		g, err := tx.GetColorGroup(ctx, "Preto")
		if err != nil || g.Total != 6 {
			t.Errorf("Preto = %+v, %v", g, err)
		}
		return nil
	})
}
