package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/sgp-controller/internal/model"
)

// CreateSession inserts s and fills in its ID.  A zero CreatedAt is set to
// the current UTC time.
func (r *repo) CreateSession(ctx context.Context, s *model.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.CreatedAt = fromMillis(toMillis(s.CreatedAt))
	res, err := r.q.ExecContext(ctx, `INSERT INTO sessions (name, created_at) VALUES (?, ?)`, s.Name, toMillis(s.CreatedAt))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

func (r *repo) GetSession(ctx context.Context, id int64) (model.Session, error) {
	var (
		s  model.Session
		at int64
	)
	err := r.q.QueryRowContext(ctx, `SELECT id, name, created_at FROM sessions WHERE id = ?`, id).Scan(&s.ID, &s.Name, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, notFound("session", id)
	}
	if err != nil {
		return model.Session{}, err
	}
	s.CreatedAt = fromMillis(at)
	return s, nil
}

func (r *repo) ListSessions(ctx context.Context) ([]model.Session, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, name, created_at FROM sessions ORDER BY id`)
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

// DeleteSession removes children before the session row so foreign keys
// hold at every step.
func (r *repo) DeleteSession(ctx context.Context, id int64) error {
	if _, err := r.GetSession(ctx, id); err != nil {
		return err
	}
	for _, q := range []string{
		`DELETE FROM history WHERE session_id = ?`,
		`DELETE FROM ownerships WHERE session_id = ?`,
		`DELETE FROM players WHERE session_id = ?`,
		`DELETE FROM sessions WHERE id = ?`,
	} {
		if _, err := r.q.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) ListSessionsCreatedBefore(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id FROM sessions WHERE created_at < ? ORDER BY id`, toMillis(cutoff))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
