// Package catalog embeds the board's property definitions and seeds them
// into a store.  The catalog is immutable at runtime; every new session
// gets one ownership record per entry.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/sgp-controller/internal/model"
	"github.com/iliyamo/sgp-controller/internal/repository"
)

//go:embed catalog.json
var boardJSON []byte

// Catalog is the parsed board definition.
type Catalog struct {
	Groups     []model.ColorGroup `json:"grupos"`
	Properties []model.Property   `json:"propriedades"`
}

// Default parses the embedded board.
func Default() (Catalog, error) {
	return Parse(boardJSON)
}

// Parse decodes and checks a board definition: IDs are unique and
// positive, every property names a known group with a known type, and each
// group's total matches the number of properties in it.
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}

	totals := make(map[string]int, len(c.Groups))
	for _, g := range c.Groups {
		if g.Total <= 0 {
			return Catalog{}, fmt.Errorf("group %q: total must be positive", g.Name)
		}
		totals[g.Name] = g.Total
	}
	counts := make(map[string]int, len(c.Groups))
	seen := make(map[int64]bool, len(c.Properties))
	for _, p := range c.Properties {
		if p.ID <= 0 || seen[p.ID] {
			return Catalog{}, fmt.Errorf("property %q: invalid or duplicated id %d", p.Name, p.ID)
		}
		seen[p.ID] = true
		if _, ok := totals[p.Group]; !ok {
			return Catalog{}, fmt.Errorf("property %q: unknown group %q", p.Name, p.Group)
		}
		if p.Type != model.PropertyNormal && p.Type != model.PropertyShare {
			return Catalog{}, fmt.Errorf("property %q: unknown type %q", p.Name, p.Type)
		}
		counts[p.Group]++
	}
	for name, total := range totals {
		if counts[name] != total {
			return Catalog{}, fmt.Errorf("group %q: total %d but %d properties", name, total, counts[name])
		}
	}
	return c, nil
}

// PropertyIDs lists every catalog ID in definition order.
func (c Catalog) PropertyIDs() []int64 {
	ids := make([]int64, len(c.Properties))
	for i, p := range c.Properties {
		ids[i] = p.ID
	}
	return ids
}

// Seed writes groups and properties into store in one transaction.  Entries
// that already exist are overwritten, so seeding on every start keeps the
// database in step with the embedded board.
func Seed(ctx context.Context, store repository.Store, c Catalog) error {
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		for _, g := range c.Groups {
			if err := tx.SaveColorGroup(ctx, g); err != nil {
				return fmt.Errorf("save group %q: %w", g.Name, err)
			}
		}
		for _, p := range c.Properties {
			if err := tx.SaveProperty(ctx, p); err != nil {
				return fmt.Errorf("save property %d: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"groups":     len(c.Groups),
		"properties": len(c.Properties),
	}).Info("catalog seeded")
	return nil
}
