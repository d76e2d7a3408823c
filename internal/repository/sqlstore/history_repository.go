package sqlstore

import (
	"context"
	"time"

	"github.com/iliyamo/sgp-controller/internal/model"
)

// AppendHistory inserts e and fills in its ID.  A zero At is set to now.
func (r *repo) AppendHistory(ctx context.Context, e *model.HistoryEntry) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	e.At = fromMillis(toMillis(e.At))
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO history (session_id, recorded_at, kind, detail) VALUES (?, ?, ?, ?)`,
		e.SessionID, toMillis(e.At), string(e.Kind), e.Detail)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

func (r *repo) ListHistory(ctx context.Context, sessionID int64) ([]model.HistoryEntry, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, session_id, recorded_at, kind, detail FROM history WHERE session_id = ? ORDER BY id`, sessionID)
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
