package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/sgp-controller/internal/model"
)

const ownershipColumns = `id, session_id, property_id, player_id, houses, mortgaged`

func scanOwnership(row interface{ Scan(...any) error }) (model.Ownership, error) {
	var (
		o     model.Ownership
		owner sql.NullInt64
	)
	if err := row.Scan(&o.ID, &o.SessionID, &o.PropertyID, &owner, &o.Houses, &o.Mortgaged); err != nil {
		return model.Ownership{}, err
	}
	if owner.Valid {
		id := owner.Int64
		o.OwnerID = &id
	}
	return o, nil
}

// listOwnerships selects records in ID order.  suffix is appended to the
// query, so r.lock there makes the rows locked in that order.
func (r *repo) listOwnerships(ctx context.Context, where, suffix string, args ...any) ([]model.Ownership, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+ownershipColumns+` FROM ownerships WHERE `+where+` ORDER BY id`+suffix, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Ownership{}
	for rows.Next() {
		o, err := scanOwnership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CreateOwnerships inserts one unowned record per property in a single
// multi-row statement.  An empty slice is a no-op.
func (r *repo) CreateOwnerships(ctx context.Context, sessionID int64, propertyIDs []int64) error {
	if len(propertyIDs) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO ownerships (session_id, property_id, houses, mortgaged) VALUES `)
	args := make([]any, 0, len(propertyIDs)*3)
	for i, pid := range propertyIDs {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, 0, ?)")
		args = append(args, sessionID, pid, false)
	}
	_, err := r.q.ExecContext(ctx, b.String(), args...)
	return err
}

// GetOwnership loads one record, locking the row inside a transaction.
func (r *repo) GetOwnership(ctx context.Context, id int64) (model.Ownership, error) {
	o, err := scanOwnership(r.q.QueryRowContext(ctx, `SELECT `+ownershipColumns+` FROM ownerships WHERE id = ?`+r.lock, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ownership{}, notFound("ownership", id)
	}
	return o, err
}

func (r *repo) GetOwnershipByProperty(ctx context.Context, sessionID, propertyID int64) (model.Ownership, error) {
	o, err := scanOwnership(r.q.QueryRowContext(ctx,
		`SELECT `+ownershipColumns+` FROM ownerships WHERE session_id = ? AND property_id = ?`+r.lock, sessionID, propertyID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ownership{}, notFound("ownership for property", propertyID)
	}
	return o, err
}

func (r *repo) ListOwnerships(ctx context.Context, sessionID int64) ([]model.Ownership, error) {
	return r.listOwnerships(ctx, `session_id = ?`, "", sessionID)
}

func (r *repo) ListOwnershipsByOwner(ctx context.Context, playerID int64) ([]model.Ownership, error) {
	return r.listOwnerships(ctx, `player_id = ?`, r.lock, playerID)
}

func (r *repo) ListGroupOwnerships(ctx context.Context, sessionID int64, group string) ([]model.Ownership, error) {
	return r.listOwnerships(ctx,
		`session_id = ? AND property_id IN (SELECT id FROM properties WHERE group_name = ?)`,
		r.lock, sessionID, group)
}

func (r *repo) SaveOwnership(ctx context.Context, o model.Ownership) error {
	var owner sql.NullInt64
	if o.OwnerID != nil {
		owner = sql.NullInt64{Int64: *o.OwnerID, Valid: true}
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE ownerships SET player_id = ?, houses = ?, mortgaged = ? WHERE id = ?`,
		owner, o.Houses, o.Mortgaged, o.ID)
	if err != nil {
		return err
	}
	// MySQL counts matched-but-unchanged rows as unaffected, so only a
	// driver that reports changes can be trusted for the not-found case.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetOwnership(ctx, o.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) ReleaseOwnerships(ctx context.Context, playerID int64) error {
	_, err := r.q.ExecContext(ctx, `UPDATE ownerships SET player_id = NULL, houses = 0 WHERE player_id = ?`, playerID)
	return err
}
