// Package memstore is an in-process implementation of repository.Store.
// A transaction works on a private copy of the dataset and swaps it in on
// commit, so a failed unit of work leaves no trace.  One mutex serializes
// all transactions.
package memstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/sgp-controller/internal/model"
	"github.com/iliyamo/sgp-controller/internal/repository"
)

type dataset struct {
	seq        int64
	sessions   map[int64]model.Session
	players    map[int64]model.Player
	groups     map[string]model.ColorGroup
	properties map[int64]model.Property
	ownerships map[int64]model.Ownership
	history    []model.HistoryEntry
}

func newDataset() *dataset {
	return &dataset{
		sessions:   map[int64]model.Session{},
		players:    map[int64]model.Player{},
		groups:     map[string]model.ColorGroup{},
		properties: map[int64]model.Property{},
		ownerships: map[int64]model.Ownership{},
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		seq:        d.seq,
		sessions:   make(map[int64]model.Session, len(d.sessions)),
		players:    make(map[int64]model.Player, len(d.players)),
		groups:     make(map[string]model.ColorGroup, len(d.groups)),
		properties: make(map[int64]model.Property, len(d.properties)),
		ownerships: make(map[int64]model.Ownership, len(d.ownerships)),
		history:    make([]model.HistoryEntry, len(d.history)),
	}
	for k, v := range d.sessions {
		c.sessions[k] = v
	}
	for k, v := range d.players {
		c.players[k] = v
	}
	for k, v := range d.groups {
		c.groups[k] = v
	}
	for k, v := range d.properties {
		c.properties[k] = v
	}
	for k, v := range d.ownerships {
		if v.OwnerID != nil {
			id := *v.OwnerID
			v.OwnerID = &id
		}
		c.ownerships[k] = v
	}
	copy(c.history, d.history)
	return c
}

func (d *dataset) nextID() int64 {
	d.seq++
	return d.seq
}

// Store keeps the whole ledger in memory.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

// New returns an empty store.
func New() *Store {
	return &Store{data: newDataset()}
}

// WithTx implements repository.Store.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.data.clone()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("memstore: panic in transaction: %v", r)
		}
	}()
	if err := fn(&view{d: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// View implements repository.Store.
func (s *Store) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&view{d: s.data})
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

// view implements repository.Tx over one dataset.
type view struct {
	d *dataset
}

func notFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, repository.ErrNotFound)
}

func (v *view) CreateSession(_ context.Context, s *model.Session) error {
	s.ID = v.d.nextID()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.CreatedAt = s.CreatedAt.UTC().Truncate(time.Millisecond)
	v.d.sessions[s.ID] = *s
	return nil
}

func (v *view) GetSession(_ context.Context, id int64) (model.Session, error) {
	s, ok := v.d.sessions[id]
	if !ok {
		return model.Session{}, notFound("session", id)
	}
	return s, nil
}

func (v *view) ListSessions(_ context.Context) ([]model.Session, error) {
	out := make([]model.Session, 0, len(v.d.sessions))
	for _, s := range v.d.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *view) DeleteSession(_ context.Context, id int64) error {
	if _, ok := v.d.sessions[id]; !ok {
		return notFound("session", id)
	}
	kept := v.d.history[:0:0]
	for _, e := range v.d.history {
		if e.SessionID != id {
			kept = append(kept, e)
		}
	}
	v.d.history = kept
	for oid, o := range v.d.ownerships {
		if o.SessionID == id {
			delete(v.d.ownerships, oid)
		}
	}
	for pid, p := range v.d.players {
		if p.SessionID == id {
			delete(v.d.players, pid)
		}
	}
	delete(v.d.sessions, id)
	return nil
}

func (v *view) ListSessionsCreatedBefore(_ context.Context, cutoff time.Time) ([]int64, error) {
	var ids []int64
	for _, s := range v.d.sessions {
		if s.CreatedAt.Before(cutoff) {
			ids = append(ids, s.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (v *view) CreatePlayer(_ context.Context, p *model.Player) error {
	if _, ok := v.d.sessions[p.SessionID]; !ok {
		return notFound("session", p.SessionID)
	}
	for _, other := range v.d.players {
		if other.SessionID == p.SessionID && (other.Name == p.Name || other.Color == p.Color) {
			return fmt.Errorf("player %q: %w", p.Name, repository.ErrConflict)
		}
	}
	p.ID = v.d.nextID()
	v.d.players[p.ID] = *p
	return nil
}

func (v *view) GetPlayer(_ context.Context, id int64) (model.Player, error) {
	p, ok := v.d.players[id]
	if !ok {
		return model.Player{}, notFound("player", id)
	}
	return p, nil
}

func (v *view) ListPlayers(_ context.Context, sessionID int64) ([]model.Player, error) {
	var out []model.Player
	for _, p := range v.d.players {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *view) UpdatePlayerProfile(_ context.Context, id int64, name, color string) error {
	p, ok := v.d.players[id]
	if !ok {
		return notFound("player", id)
	}
	for _, other := range v.d.players {
		if other.ID != id && other.SessionID == p.SessionID && (other.Name == name || other.Color == color) {
			return fmt.Errorf("player %q: %w", name, repository.ErrConflict)
		}
	}
	p.Name, p.Color = name, color
	v.d.players[id] = p
	return nil
}

func (v *view) AdjustBalance(_ context.Context, id int64, delta int64) error {
	p, ok := v.d.players[id]
	if !ok {
		return notFound("player", id)
	}
	if (delta > 0 && p.Balance > math.MaxInt64-delta) || (delta < 0 && p.Balance < math.MinInt64-delta) {
		return fmt.Errorf("player %d: balance out of range", id)
	}
	p.Balance += delta
	v.d.players[id] = p
	return nil
}

func (v *view) DeletePlayer(_ context.Context, id int64) error {
	if _, ok := v.d.players[id]; !ok {
		return notFound("player", id)
	}
	delete(v.d.players, id)
	return nil
}

func (v *view) SaveColorGroup(_ context.Context, g model.ColorGroup) error {
	v.d.groups[g.Name] = g
	return nil
}

func (v *view) GetColorGroup(_ context.Context, name string) (model.ColorGroup, error) {
	g, ok := v.d.groups[name]
	if !ok {
		return model.ColorGroup{}, notFound("color group", name)
	}
	return g, nil
}

func (v *view) SaveProperty(_ context.Context, p model.Property) error {
	v.d.properties[p.ID] = p
	return nil
}

func (v *view) GetProperty(_ context.Context, id int64) (model.Property, error) {
	p, ok := v.d.properties[id]
	if !ok {
		return model.Property{}, notFound("property", id)
	}
	return p, nil
}

func (v *view) ListProperties(_ context.Context) ([]model.Property, error) {
	out := make([]model.Property, 0, len(v.d.properties))
	for _, p := range v.d.properties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *view) CreateOwnerships(_ context.Context, sessionID int64, propertyIDs []int64) error {
	if _, ok := v.d.sessions[sessionID]; !ok {
		return notFound("session", sessionID)
	}
	for _, pid := range propertyIDs {
		if _, ok := v.d.properties[pid]; !ok {
			return notFound("property", pid)
		}
		id := v.d.nextID()
		v.d.ownerships[id] = model.Ownership{ID: id, SessionID: sessionID, PropertyID: pid}
	}
	return nil
}

func (v *view) GetOwnership(_ context.Context, id int64) (model.Ownership, error) {
	o, ok := v.d.ownerships[id]
	if !ok {
		return model.Ownership{}, notFound("ownership", id)
	}
	return o, nil
}

func (v *view) GetOwnershipByProperty(_ context.Context, sessionID, propertyID int64) (model.Ownership, error) {
	for _, o := range v.d.ownerships {
		if o.SessionID == sessionID && o.PropertyID == propertyID {
			return o, nil
		}
	}
	return model.Ownership{}, notFound("ownership for property", propertyID)
}

func (v *view) ListOwnerships(_ context.Context, sessionID int64) ([]model.Ownership, error) {
	var out []model.Ownership
	for _, o := range v.d.ownerships {
		if o.SessionID == sessionID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *view) ListOwnershipsByOwner(_ context.Context, playerID int64) ([]model.Ownership, error) {
	var out []model.Ownership
	for _, o := range v.d.ownerships {
		if o.OwnedBy(playerID) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *view) SaveOwnership(_ context.Context, o model.Ownership) error {
	cur, ok := v.d.ownerships[o.ID]
	if !ok {
		return notFound("ownership", o.ID)
	}
	if o.OwnerID != nil {
		id := *o.OwnerID
		cur.OwnerID = &id
	} else {
		cur.OwnerID = nil
	}
	cur.Houses = o.Houses
	cur.Mortgaged = o.Mortgaged
	v.d.ownerships[o.ID] = cur
	return nil
}

func (v *view) ReleaseOwnerships(_ context.Context, playerID int64) error {
	for id, o := range v.d.ownerships {
		if o.OwnedBy(playerID) {
			o.OwnerID = nil
			o.Houses = 0
			v.d.ownerships[id] = o
		}
	}
	return nil
}

func (v *view) ListGroupOwnerships(_ context.Context, sessionID int64, group string) ([]model.Ownership, error) {
	var out []model.Ownership
	for _, o := range v.d.ownerships {
		if p, ok := v.d.properties[o.PropertyID]; ok && o.SessionID == sessionID && p.Group == group {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *view) AppendHistory(_ context.Context, e *model.HistoryEntry) error {
	if _, ok := v.d.sessions[e.SessionID]; !ok {
		return notFound("session", e.SessionID)
	}
	e.ID = v.d.nextID()
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	e.At = e.At.UTC().Truncate(time.Millisecond)
	v.d.history = append(v.d.history, *e)
	return nil
}

func (v *view) ListHistory(_ context.Context, sessionID int64) ([]model.HistoryEntry, error) {
	var out []model.HistoryEntry
	for _, e := range v.d.history {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}
