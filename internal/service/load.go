package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/sgp-controller/internal/apperr"
	"github.com/iliyamo/sgp-controller/internal/model"
	"github.com/iliyamo/sgp-controller/internal/repository"
)

// Player-facing messages shared by several operations.
const (
	msgSessionNotFound  = "Sessão não encontrada"
	msgPlayerNotFound   = "Jogador não encontrado"
	msgPropertyNotFound = "Propriedade não encontrada"
	msgInsufficient     = "Saldo insuficiente"
	msgNotOwner         = "A propriedade não pertence a este jogador"
	msgBalanceLimit     = "Operação excede o limite de saldo"
)

// MaxAmount is the largest value a single bank operation accepts.
const MaxAmount int64 = 1_000_000_000

func loadSession(ctx context.Context, tx repository.Tx, id int64) (model.Session, error) {
	s, err := tx.GetSession(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Session{}, apperr.NotFoundf(msgSessionNotFound)
	}
	return s, err
}

// loadPlayer fetches (and, inside a transaction, locks) a player that must
// belong to sessionID.  A player from another session is reported as
// missing.
func loadPlayer(ctx context.Context, tx repository.Tx, sessionID, id int64) (model.Player, error) {
	p, err := tx.GetPlayer(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && p.SessionID != sessionID) {
		return model.Player{}, apperr.NotFoundf(msgPlayerNotFound)
	}
	return p, err
}

// loadPlayers locks two distinct players in ascending ID order so that
// concurrent operations over the same pair cannot deadlock.
func loadPlayers(ctx context.Context, tx repository.Tx, sessionID, a, b int64) (model.Player, model.Player, error) {
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	p1, err := loadPlayer(ctx, tx, sessionID, first)
	if err != nil {
		return model.Player{}, model.Player{}, err
	}
	p2, err := loadPlayer(ctx, tx, sessionID, second)
	if err != nil {
		return model.Player{}, model.Player{}, err
	}
	if first == a {
		return p1, p2, nil
	}
	return p2, p1, nil
}

func loadProperty(ctx context.Context, tx repository.Tx, id int64) (model.Property, error) {
	p, err := tx.GetProperty(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Property{}, apperr.NotFoundf(msgPropertyNotFound)
	}
	return p, err
}

// loadRecord fetches the session's ownership record for a catalog property
// together with the catalog entry.
func loadRecord(ctx context.Context, tx repository.Tx, sessionID, propertyID int64) (model.Ownership, model.Property, error) {
	o, err := tx.GetOwnershipByProperty(ctx, sessionID, propertyID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Ownership{}, model.Property{}, apperr.NotFoundf(msgPropertyNotFound)
	}
	if err != nil {
		return model.Ownership{}, model.Property{}, err
	}
	p, err := loadProperty(ctx, tx, o.PropertyID)
	return o, p, err
}

// loadGroupRecord locks the session's records of prop's color group and
// returns the one for prop with the number of group records playerID owns.
func loadGroupRecord(ctx context.Context, tx repository.Tx, sessionID int64, prop model.Property, playerID int64) (model.Ownership, int, error) {
	rows, err := tx.ListGroupOwnerships(ctx, sessionID, prop.Group)
	if err != nil {
		return model.Ownership{}, 0, err
	}
	var (
		rec   model.Ownership
		found bool
		owned int
	)
	for _, o := range rows {
		if o.PropertyID == prop.ID {
			rec, found = o, true
		}
		if o.OwnedBy(playerID) {
			owned++
		}
	}
	if !found {
		return model.Ownership{}, 0, apperr.NotFoundf(msgPropertyNotFound)
	}
	return rec, owned, nil
}

// loadRecordByID is loadRecord keyed by the ownership record ID.
func loadRecordByID(ctx context.Context, tx repository.Tx, sessionID, ownershipID int64) (model.Ownership, model.Property, error) {
	o, err := tx.GetOwnership(ctx, ownershipID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && o.SessionID != sessionID) {
		return model.Ownership{}, model.Property{}, apperr.NotFoundf("Posse não encontrada")
	}
	if err != nil {
		return model.Ownership{}, model.Property{}, err
	}
	p, err := loadProperty(ctx, tx, o.PropertyID)
	return o, p, err
}

func requireID(v int64, field string) error {
	if v <= 0 {
		return apperr.Invalid("Campo obrigatório ausente ou inválido: " + field)
	}
	return nil
}

func requireAmount(v int64) error {
	if v <= 0 {
		return apperr.Invalid("O valor deve ser um inteiro positivo")
	}
	if v > MaxAmount {
		return apperr.Invalid(fmt.Sprintf("O valor não pode exceder R$ %d", MaxAmount))
	}
	return nil
}
