package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/sgp-controller/internal/model"
	"github.com/iliyamo/sgp-controller/internal/repository"
)

const playerColumns = `id, session_id, name, color, balance`

func scanPlayer(row interface{ Scan(...any) error }) (model.Player, error) {
	var p model.Player
	err := row.Scan(&p.ID, &p.SessionID, &p.Name, &p.Color, &p.Balance)
	return p, err
}

// CreatePlayer inserts p and fills in its ID.  A duplicated name or color
// inside the session yields repository.ErrConflict.
func (r *repo) CreatePlayer(ctx context.Context, p *model.Player) error {
	if _, err := r.GetSession(ctx, p.SessionID); err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO players (session_id, name, color, balance) VALUES (?, ?, ?, ?)`,
		p.SessionID, p.Name, p.Color, p.Balance)
	if err != nil {
		if r.d.isUnique(err) {
			return fmt.Errorf("player %q: %w", p.Name, repository.ErrConflict)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

// GetPlayer loads one player, locking the row inside a transaction.
func (r *repo) GetPlayer(ctx context.Context, id int64) (model.Player, error) {
	p, err := scanPlayer(r.q.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`+r.lock, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Player{}, notFound("player", id)
	}
	return p, err
}

// ListPlayers returns the session's players in ID order, locking them
// inside a transaction.
func (r *repo) ListPlayers(ctx context.Context, sessionID int64) ([]model.Player, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+playerColumns+` FROM players WHERE session_id = ? ORDER BY id`+r.lock, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repo) UpdatePlayerProfile(ctx context.Context, id int64, name, color string) error {
	if _, err := r.GetPlayer(ctx, id); err != nil {
		return err
	}
	_, err := r.q.ExecContext(ctx, `UPDATE players SET name = ?, color = ? WHERE id = ?`, name, color, id)
	if err != nil && r.d.isUnique(err) {
		return fmt.Errorf("player %q: %w", name, repository.ErrConflict)
	}
	return err
}

func (r *repo) AdjustBalance(ctx context.Context, id int64, delta int64) error {
	res, err := r.q.ExecContext(ctx, `UPDATE players SET balance = balance + ? WHERE id = ?`, delta, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("player", id)
	}
	return nil
}

func (r *repo) DeletePlayer(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound("player", id)
	}
	return nil
}
