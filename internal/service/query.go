package service

import (
	"context"

	"github.com/iliyamo/sgp-controller/internal/model"
	"github.com/iliyamo/sgp-controller/internal/repository"
)

// GetPlayer returns a player and the records they own.
func (s *Service) GetPlayer(ctx context.Context, id int64) (model.PlayerDetail, error) {
	if err := requireID(id, "playerId"); err != nil {
		return model.PlayerDetail{}, err
	}
	var d model.PlayerDetail
	err := s.store.View(ctx, func(tx repository.Tx) error {
		p, err := tx.GetPlayer(ctx, id)
		if err != nil {
			return notFound(err, msgPlayerNotFound)
		}
		d.Player = p
		d.Properties, err = tx.ListOwnershipsByOwner(ctx, id)
		return err
	})
	if d.Properties == nil {
		d.Properties = []model.Ownership{}
	}
	return d, err
}

// GetProperty returns a catalog entry.
func (s *Service) GetProperty(ctx context.Context, id int64) (model.Property, error) {
	if err := requireID(id, "propriedadeId"); err != nil {
		return model.Property{}, err
	}
	var p model.Property
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		p, err = loadProperty(ctx, tx, id)
		return err
	})
	return p, err
}

// History returns the session's ledger in insertion order.
func (s *Service) History(ctx context.Context, sessionID int64) ([]model.HistoryEntry, error) {
	if err := requireID(sessionID, "sessionId"); err != nil {
		return nil, err
	}
	var out []model.HistoryEntry
	err := s.store.View(ctx, func(tx repository.Tx) error {
		if _, err := loadSession(ctx, tx, sessionID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListHistory(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.HistoryEntry{}
	}
	return out, nil
}
