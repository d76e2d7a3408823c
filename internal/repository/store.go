// Package repository declares the persistence contract of the ledger.
// Adapters live in sub-packages: sqlstore (MySQL and SQLite through
// database/sql), pgstore (PostgreSQL through pgx) and memstore (in-process
// arena used by tests and the "memory" driver).
package repository

import (
	"context"
	"time"

	"github.com/iliyamo/sgp-controller/internal/model"
)

// SessionRepo reads and writes sessions.
type SessionRepo interface {
	CreateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, id int64) (model.Session, error)
	ListSessions(ctx context.Context) ([]model.Session, error)
	// DeleteSession removes the session and everything that belongs to it:
	// history, ownership records and players.
	DeleteSession(ctx context.Context, id int64) error
	// ListSessionsCreatedBefore returns the IDs of sessions created strictly
	// before cutoff, oldest first.
	ListSessionsCreatedBefore(ctx context.Context, cutoff time.Time) ([]int64, error)
}

// PlayerRepo reads and writes players.  Inside a transaction, GetPlayer and
// ListPlayers lock the rows they return until commit.
type PlayerRepo interface {
	CreatePlayer(ctx context.Context, p *model.Player) error
	GetPlayer(ctx context.Context, id int64) (model.Player, error)
	ListPlayers(ctx context.Context, sessionID int64) ([]model.Player, error)
	UpdatePlayerProfile(ctx context.Context, id int64, name, color string) error
	// AdjustBalance adds delta to the player's balance.  It never enforces a
	// lower bound; callers check funds first.
	AdjustBalance(ctx context.Context, id int64, delta int64) error
	DeletePlayer(ctx context.Context, id int64) error
}

// CatalogRepo reads and seeds the static property catalog.
type CatalogRepo interface {
	SaveColorGroup(ctx context.Context, g model.ColorGroup) error
	GetColorGroup(ctx context.Context, name string) (model.ColorGroup, error)
	SaveProperty(ctx context.Context, p model.Property) error
	GetProperty(ctx context.Context, id int64) (model.Property, error)
	ListProperties(ctx context.Context) ([]model.Property, error)
}

// OwnershipRepo reads and writes per-session ownership records.  Inside a
// transaction, single-record reads lock the row they return until commit.
type OwnershipRepo interface {
	// CreateOwnerships inserts one unowned record per property ID.
	CreateOwnerships(ctx context.Context, sessionID int64, propertyIDs []int64) error
	GetOwnership(ctx context.Context, id int64) (model.Ownership, error)
	// GetOwnershipByProperty loads the session's record for a catalog
	// property, locking it inside a transaction.
	GetOwnershipByProperty(ctx context.Context, sessionID, propertyID int64) (model.Ownership, error)
	ListOwnerships(ctx context.Context, sessionID int64) ([]model.Ownership, error)
	// ListOwnershipsByOwner returns the records owned by playerID in ID
	// order, locking them inside a transaction.
	ListOwnershipsByOwner(ctx context.Context, playerID int64) ([]model.Ownership, error)
	// SaveOwnership writes OwnerID, Houses and Mortgaged of an existing record.
	SaveOwnership(ctx context.Context, o model.Ownership) error
	// ReleaseOwnerships returns every record owned by playerID to the bank
	// and clears its houses.
	ReleaseOwnerships(ctx context.Context, playerID int64) error
	// ListGroupOwnerships returns the session's records whose catalog
	// property belongs to group, in ID order, locking them inside a
	// transaction.
	ListGroupOwnerships(ctx context.Context, sessionID int64, group string) ([]model.Ownership, error)
}

// HistoryRepo appends to and reads the per-session ledger.
type HistoryRepo interface {
	AppendHistory(ctx context.Context, e *model.HistoryEntry) error
	ListHistory(ctx context.Context, sessionID int64) ([]model.HistoryEntry, error)
}

// Tx is the full set of repository operations available to a unit of work.
type Tx interface {
	SessionRepo
	PlayerRepo
	CatalogRepo
	OwnershipRepo
	HistoryRepo
}

// Store opens units of work against one backend.
type Store interface {
	// WithTx runs fn inside a single atomic transaction.  The transaction
	// commits when fn returns nil and rolls back on any error or panic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn against the current committed state without row locks.
	// fn must not write.
	View(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}
