package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iliyamo/sgp-controller/internal/model"
	"github.com/iliyamo/sgp-controller/internal/repository"
)

type repo struct {
	q    querier
	lock string
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

func notFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, repository.ErrNotFound)
}

// sessions

func (r *repo) CreateSession(ctx context.Context, s *model.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.CreatedAt = fromMillis(toMillis(s.CreatedAt))
	return r.q.QueryRow(ctx, `INSERT INTO sessions (name, created_at) VALUES ($1, $2) RETURNING id`,
		s.Name, toMillis(s.CreatedAt)).Scan(&s.ID)
}

func (r *repo) GetSession(ctx context.Context, id int64) (model.Session, error) {
	var (
		s  model.Session
		at int64
	)
	err := r.q.QueryRow(ctx, `SELECT id, name, created_at FROM sessions WHERE id = $1`, id).Scan(&s.ID, &s.Name, &at)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Session{}, notFound("session", id)
	}
	s.CreatedAt = fromMillis(at)
	return s, err
}

func (r *repo) ListSessions(ctx context.Context) ([]model.Session, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, created_at FROM sessions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Session{}
	for rows.Next() {
		var (
			s  model.Session
			at int64
		)
		if err := rows.Scan(&s.ID, &s.Name, &at); err != nil {
			return nil, err
		}
		s.CreatedAt = fromMillis(at)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repo) DeleteSession(ctx context.Context, id int64) error {
	if _, err := r.GetSession(ctx, id); err != nil {
		return err
	}
	for _, q := range []string{
		`DELETE FROM history WHERE session_id = $1`,
		`DELETE FROM ownerships WHERE session_id = $1`,
		`DELETE FROM players WHERE session_id = $1`,
		`DELETE FROM sessions WHERE id = $1`,
	} {
		if _, err := r.q.Exec(ctx, q, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) ListSessionsCreatedBefore(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM sessions WHERE created_at < $1 ORDER BY id`, toMillis(cutoff))
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// players

const playerColumns = `id, session_id, name, color, balance`

func scanPlayer(row pgx.Row) (model.Player, error) {
	var p model.Player
	err := row.Scan(&p.ID, &p.SessionID, &p.Name, &p.Color, &p.Balance)
	return p, err
}

func (r *repo) CreatePlayer(ctx context.Context, p *model.Player) error {
	if _, err := r.GetSession(ctx, p.SessionID); err != nil {
		return err
	}
	err := r.q.QueryRow(ctx,
		`INSERT INTO players (session_id, name, color, balance) VALUES ($1, $2, $3, $4) RETURNING id`,
		p.SessionID, p.Name, p.Color, p.Balance).Scan(&p.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("player %q: %w", p.Name, repository.ErrConflict)
	}
	return err
}

func (r *repo) GetPlayer(ctx context.Context, id int64) (model.Player, error) {
	p, err := scanPlayer(r.q.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`+r.lock, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Player{}, notFound("player", id)
	}
	return p, err
}

func (r *repo) ListPlayers(ctx context.Context, sessionID int64) ([]model.Player, error) {
	rows, err := r.q.Query(ctx, `SELECT `+playerColumns+` FROM players WHERE session_id = $1 ORDER BY id`+r.lock, sessionID)
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
	tag, err := r.q.Exec(ctx, `UPDATE players SET name = $1, color = $2 WHERE id = $3`, name, color, id)
	if isUniqueViolation(err) {
		return fmt.Errorf("player %q: %w", name, repository.ErrConflict)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("player", id)
	}
	return nil
}

func (r *repo) AdjustBalance(ctx context.Context, id int64, delta int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE players SET balance = balance + $1 WHERE id = $2`, delta, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("player", id)
	}
	return nil
}

func (r *repo) DeletePlayer(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("player", id)
	}
	return nil
}

// catalog

const propertyColumns = `id, name, group_name, prop_type, cost, rent_base, rent_1, rent_2, rent_3, rent_4, rent_hotel, house_cost, mortgage`

func scanProperty(row pgx.Row) (model.Property, error) {
	var (
		p    model.Property
		kind string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Group, &kind, &p.Cost, &p.RentBase, &p.Rent1, &p.Rent2, &p.Rent3, &p.Rent4, &p.RentHotel, &p.HouseCost, &p.Mortgage)
	p.Type = model.PropertyType(kind)
	return p, err
}

func (r *repo) SaveColorGroup(ctx context.Context, g model.ColorGroup) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO color_groups (name, total) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET total = EXCLUDED.total`, g.Name, g.Total)
	return err
}

func (r *repo) GetColorGroup(ctx context.Context, name string) (model.ColorGroup, error) {
	var g model.ColorGroup
	err := r.q.QueryRow(ctx, `SELECT name, total FROM color_groups WHERE name = $1`, name).Scan(&g.Name, &g.Total)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ColorGroup{}, notFound("color group", name)
	}
	return g, err
}

func (r *repo) SaveProperty(ctx context.Context, p model.Property) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO properties (`+propertyColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, group_name = EXCLUDED.group_name,
		   prop_type = EXCLUDED.prop_type, cost = EXCLUDED.cost, rent_base = EXCLUDED.rent_base,
		   rent_1 = EXCLUDED.rent_1, rent_2 = EXCLUDED.rent_2, rent_3 = EXCLUDED.rent_3, rent_4 = EXCLUDED.rent_4,
		   rent_hotel = EXCLUDED.rent_hotel, house_cost = EXCLUDED.house_cost, mortgage = EXCLUDED.mortgage`,
		p.ID, p.Name, p.Group, string(p.Type), p.Cost, p.RentBase, p.Rent1, p.Rent2, p.Rent3, p.Rent4, p.RentHotel, p.HouseCost, p.Mortgage)
	return err
}

func (r *repo) GetProperty(ctx context.Context, id int64) (model.Property, error) {
	p, err := scanProperty(r.q.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Property{}, notFound("property", id)
	}
	return p, err
}

func (r *repo) ListProperties(ctx context.Context) ([]model.Property, error) {
	rows, err := r.q.Query(ctx, `SELECT `+propertyColumns+` FROM properties ORDER BY id`)
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

// ownerships

const ownershipColumns = `id, session_id, property_id, player_id, houses, mortgaged`

func scanOwnership(row pgx.Row) (model.Ownership, error) {
	var o model.Ownership
	err := row.Scan(&o.ID, &o.SessionID, &o.PropertyID, &o.OwnerID, &o.Houses, &o.Mortgaged)
	return o, err
}

func (r *repo) CreateOwnerships(ctx context.Context, sessionID int64, propertyIDs []int64) error {
	if len(propertyIDs) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO ownerships (session_id, property_id) SELECT $1, unnest($2::bigint[])`,
		sessionID, propertyIDs)
	return err
}

func (r *repo) GetOwnership(ctx context.Context, id int64) (model.Ownership, error) {
	o, err := scanOwnership(r.q.QueryRow(ctx, `SELECT `+ownershipColumns+` FROM ownerships WHERE id = $1`+r.lock, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Ownership{}, notFound("ownership", id)
	}
	return o, err
}

func (r *repo) GetOwnershipByProperty(ctx context.Context, sessionID, propertyID int64) (model.Ownership, error) {
	o, err := scanOwnership(r.q.QueryRow(ctx,
		`SELECT `+ownershipColumns+` FROM ownerships WHERE session_id = $1 AND property_id = $2`+r.lock, sessionID, propertyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Ownership{}, notFound("ownership for property", propertyID)
	}
	return o, err
}

// listOwnerships selects records in ID order, appending suffix to the query.
func (r *repo) listOwnerships(ctx context.Context, where, suffix string, args ...any) ([]model.Ownership, error) {
	rows, err := r.q.Query(ctx, `SELECT `+ownershipColumns+` FROM ownerships WHERE `+where+` ORDER BY id`+suffix, args...)
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

func (r *repo) ListOwnerships(ctx context.Context, sessionID int64) ([]model.Ownership, error) {
	return r.listOwnerships(ctx, `session_id = $1`, "", sessionID)
}

func (r *repo) ListOwnershipsByOwner(ctx context.Context, playerID int64) ([]model.Ownership, error) {
	return r.listOwnerships(ctx, `player_id = $1`, r.lock, playerID)
}

func (r *repo) ListGroupOwnerships(ctx context.Context, sessionID int64, group string) ([]model.Ownership, error) {
	return r.listOwnerships(ctx,
		`session_id = $1 AND property_id IN (SELECT id FROM properties WHERE group_name = $2)`,
		r.lock, sessionID, group)
}

func (r *repo) SaveOwnership(ctx context.Context, o model.Ownership) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE ownerships SET player_id = $1, houses = $2, mortgaged = $3 WHERE id = $4`,
		o.OwnerID, o.Houses, o.Mortgaged, o.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("ownership", o.ID)
	}
	return nil
}

func (r *repo) ReleaseOwnerships(ctx context.Context, playerID int64) error {
	_, err := r.q.Exec(ctx, `UPDATE ownerships SET player_id = NULL, houses = 0 WHERE player_id = $1`, playerID)
	return err
}

// history

func (r *repo) AppendHistory(ctx context.Context, e *model.HistoryEntry) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	e.At = fromMillis(toMillis(e.At))
	return r.q.QueryRow(ctx,
		`INSERT INTO history (session_id, recorded_at, kind, detail) VALUES ($1, $2, $3, $4) RETURNING id`,
		e.SessionID, toMillis(e.At), string(e.Kind), e.Detail).Scan(&e.ID)
}

func (r *repo) ListHistory(ctx context.Context, sessionID int64) ([]model.HistoryEntry, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, session_id, recorded_at, kind, detail FROM history WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.HistoryEntry{}
	for rows.Next() {
		var (
			e    model.HistoryEntry
			at   int64
			kind string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &at, &kind, &e.Detail); err != nil {
			return nil, err
		}
		e.At = fromMillis(at)
		e.Kind = model.HistoryKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}
