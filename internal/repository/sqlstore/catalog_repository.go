package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/sgp-controller/internal/model"
	"github.com/iliyamo/sgp-controller/internal/repository"
)

const propertyColumns = `id, name, group_name, prop_type, cost, rent_base, rent_1, rent_2, rent_3, rent_4, rent_hotel, house_cost, mortgage`

func scanProperty(row interface{ Scan(...any) error }) (model.Property, error) {
	var (
		p    model.Property
		kind string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Group, &kind, &p.Cost, &p.RentBase, &p.Rent1, &p.Rent2, &p.Rent3, &p.Rent4, &p.RentHotel, &p.HouseCost, &p.Mortgage)
	p.Type = model.PropertyType(kind)
	return p, err
}

// SaveColorGroup inserts or updates a group.  An existence check picks the
// statement because MySQL reports zero affected rows for no-op updates.
func (r *repo) SaveColorGroup(ctx context.Context, g model.ColorGroup) error {
	_, err := r.GetColorGroup(ctx, g.Name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		_, err = r.q.ExecContext(ctx, `INSERT INTO color_groups (name, total) VALUES (?, ?)`, g.Name, g.Total)
	case err == nil:
		_, err = r.q.ExecContext(ctx, `UPDATE color_groups SET total = ? WHERE name = ?`, g.Total, g.Name)
	}
	return err
}

func (r *repo) GetColorGroup(ctx context.Context, name string) (model.ColorGroup, error) {
	var g model.ColorGroup
	err := r.q.QueryRowContext(ctx, `SELECT name, total FROM color_groups WHERE name = ?`, name).Scan(&g.Name, &g.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ColorGroup{}, notFound("color group", name)
	}
	return g, err
}

// SaveProperty inserts or updates a catalog entry keyed by its ID.
func (r *repo) SaveProperty(ctx context.Context, p model.Property) error {
	_, err := r.GetProperty(ctx, p.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		_, err = r.q.ExecContext(ctx,
			`INSERT INTO properties (`+propertyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Group, string(p.Type), p.Cost, p.RentBase, p.Rent1, p.Rent2, p.Rent3, p.Rent4, p.RentHotel, p.HouseCost, p.Mortgage)
	case err == nil:
		_, err = r.q.ExecContext(ctx,
			`UPDATE properties SET name = ?, group_name = ?, prop_type = ?, cost = ?, rent_base = ?, rent_1 = ?, rent_2 = ?,
			 rent_3 = ?, rent_4 = ?, rent_hotel = ?, house_cost = ?, mortgage = ? WHERE id = ?`,
			p.Name, p.Group, string(p.Type), p.Cost, p.RentBase, p.Rent1, p.Rent2, p.Rent3, p.Rent4, p.RentHotel, p.HouseCost, p.Mortgage, p.ID)
	}
	return err
}

func (r *repo) GetProperty(ctx context.Context, id int64) (model.Property, error) {
	p, err := scanProperty(r.q.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Property{}, notFound("property", id)
	}
	return p, err
}

func (r *repo) ListProperties(ctx context.Context) ([]model.Property, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+propertyColumns+` FROM properties ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
