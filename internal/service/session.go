package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/sgp-controller/internal/apperr"
	"github.com/iliyamo/sgp-controller/internal/model"
	"github.com/iliyamo/sgp-controller/internal/repository"
)

// NewPlayer describes a player joining a session.  A zero Balance means
// the configured initial balance.
type NewPlayer struct {
	Name    string
	Color   string
	Balance int64
}

func (p NewPlayer) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Invalid("O nome do jogador é obrigatório")
	}
	if !model.ValidColor(p.Color) {
		return apperr.Invalid(fmt.Sprintf("Cor inválida: %s", p.Color))
	}
	if p.Balance < 0 {
		return apperr.Invalid("O saldo inicial não pode ser negativo")
	}
	if p.Balance > MaxAmount {
		return apperr.Invalid(fmt.Sprintf("O saldo inicial não pode exceder R$ %d", MaxAmount))
	}
	return nil
}

// profileTaken maps a unique-key violation on players to a client error.
func profileTaken(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return apperr.Conflicting("Nome ou cor já utilizados nesta sessão")
	}
	return err
}

// CreateSession starts a game with 2 to 6 players and one unowned record
// per catalog property.
func (s *Service) CreateSession(ctx context.Context, name string, players []NewPlayer) (model.SessionState, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.SessionState{}, apperr.Invalid("O nome da sessão é obrigatório")
	}
	if len(players) < model.MinPlayers || len(players) > model.MaxPlayers {
		return model.SessionState{}, apperr.Invalid(fmt.Sprintf("Uma sessão precisa de %d a %d jogadores", model.MinPlayers, model.MaxPlayers))
	}
	names := make(map[string]bool, len(players))
	colors := make(map[string]bool, len(players))
	for _, p := range players {
		if err := p.validate(); err != nil {
			return model.SessionState{}, err
		}
		n := strings.TrimSpace(p.Name)
		if names[n] || colors[p.Color] {
			return model.SessionState{}, apperr.Invalid("Nomes e cores dos jogadores devem ser únicos")
		}
		names[n], colors[p.Color] = true, true
	}

	var state model.SessionState
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		sess := model.Session{Name: name, CreatedAt: s.now()}
		if err := tx.CreateSession(ctx, &sess); err != nil {
			return err
		}
		for _, np := range players {
			p := model.Player{SessionID: sess.ID, Name: strings.TrimSpace(np.Name), Color: np.Color, Balance: s.balanceOf(np)}
			if err := tx.CreatePlayer(ctx, &p); err != nil {
				return profileTaken(err)
			}
			state.Players = append(state.Players, p)
		}
		props, err := tx.ListProperties(ctx)
		if err != nil {
			return err
		}
		if len(props) == 0 {
			return errors.New("property catalog is empty")
		}
		ids := make([]int64, 0, len(props))
		for _, p := range props {
			ids = append(ids, p.ID)
		}
		if err := tx.CreateOwnerships(ctx, sess.ID, ids); err != nil {
			return err
		}
		state.Ownerships, err = tx.ListOwnerships(ctx, sess.ID)
		state.Session = sess
		return err
	})
	if err != nil {
		return model.SessionState{}, err
	}
	state.History = []model.HistoryEntry{}
	log.WithFields(log.Fields{"session_id": state.Session.ID, "players": len(state.Players)}).Info("session created")
	return state, nil
}

func (s *Service) balanceOf(p NewPlayer) int64 {
	if p.Balance == 0 {
		return s.initialBalance
	}
	return p.Balance
}

// ListSessions returns every session, oldest first.
func (s *Service) ListSessions(ctx context.Context) ([]model.Session, error) {
	var out []model.Session
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListSessions(ctx)
		return err
	})
	if out == nil {
		out = []model.Session{}
	}
	return out, err
}

// LoadSession returns the full state of a saved game.
func (s *Service) LoadSession(ctx context.Context, id int64) (model.SessionState, error) {
	var state model.SessionState
	err := s.store.View(ctx, func(tx repository.Tx) error {
		sess, err := loadSession(ctx, tx, id)
		if err != nil {
			return err
		}
		state.Session = sess
		if state.Players, err = tx.ListPlayers(ctx, id); err != nil {
			return err
		}
		if state.Ownerships, err = tx.ListOwnerships(ctx, id); err != nil {
			return err
		}
		state.History, err = tx.ListHistory(ctx, id)
		return err
	})
	if err != nil {
		return model.SessionState{}, err
	}
	if state.Players == nil {
		state.Players = []model.Player{}
	}
	if state.History == nil {
		state.History = []model.HistoryEntry{}
	}
	return state, nil
}

// EndSession deletes a session with its players, records and history.
func (s *Service) EndSession(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		if _, err := loadSession(ctx, tx, id); err != nil {
			return err
		}
		return tx.DeleteSession(ctx, id)
	})
	if err == nil {
		log.WithField("session_id", id).Info("session ended")
	}
	return err
}

// ReapSessions ends every session created before cutoff and returns how
// many were removed.  A failure on one session does not stop the others.
func (s *Service) ReapSessions(ctx context.Context, cutoff time.Time) (int, error) {
	var ids []int64
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		ids, err = tx.ListSessionsCreatedBefore(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, err
	}
	var (
		reaped int
		errs   []error
	)
	for _, id := range ids {
		if err := s.EndSession(ctx, id); err != nil {
			if apperr.KindOf(err) == apperr.NotFound {
				continue
			}
			errs = append(errs, fmt.Errorf("session %d: %w", id, err))
			continue
		}
		reaped++
	}
	return reaped, errors.Join(errs...)
}

// AddPlayer joins a new player to an existing session.
func (s *Service) AddPlayer(ctx context.Context, sessionID int64, np NewPlayer) (model.Player, error) {
	if err := requireID(sessionID, "sessionId"); err != nil {
		return model.Player{}, err
	}
	if err := np.validate(); err != nil {
		return model.Player{}, err
	}
	var p model.Player
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		if _, err := loadSession(ctx, tx, sessionID); err != nil {
			return err
		}
		existing, err := tx.ListPlayers(ctx, sessionID)
		if err != nil {
			return err
		}
		if len(existing) >= model.MaxPlayers {
			return apperr.Rule(fmt.Sprintf("A sessão já possui %d jogadores", model.MaxPlayers))
		}
		p = model.Player{SessionID: sessionID, Name: strings.TrimSpace(np.Name), Color: np.Color, Balance: s.balanceOf(np)}
		return profileTaken(tx.CreatePlayer(ctx, &p))
	})
	if err != nil {
		return model.Player{}, err
	}
	return p, nil
}

// EditPlayer changes a player's name and color.
func (s *Service) EditPlayer(ctx context.Context, id int64, name, color string) (model.Player, error) {
	if err := requireID(id, "playerId"); err != nil {
		return model.Player{}, err
	}
	if err := (NewPlayer{Name: name, Color: color}).validate(); err != nil {
		return model.Player{}, err
	}
	var p model.Player
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		if p, err = tx.GetPlayer(ctx, id); err != nil {
			return notFound(err, msgPlayerNotFound)
		}
		p.Name, p.Color = strings.TrimSpace(name), color
		return profileTaken(tx.UpdatePlayerProfile(ctx, id, p.Name, p.Color))
	})
	if err != nil {
		return model.Player{}, err
	}
	return p, nil
}

// RemovePlayer returns the player's properties to the bank and deletes
// them from the session.
func (s *Service) RemovePlayer(ctx context.Context, id int64) (model.Player, error) {
	if err := requireID(id, "playerId"); err != nil {
		return model.Player{}, err
	}
	var p model.Player
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		// Records before the player, matching the ledger operations.
		if _, err := tx.ListOwnershipsByOwner(ctx, id); err != nil {
			return err
		}
		var err error
		if p, err = tx.GetPlayer(ctx, id); err != nil {
			return notFound(err, msgPlayerNotFound)
		}
		if err := tx.ReleaseOwnerships(ctx, id); err != nil {
			return err
		}
		return tx.DeletePlayer(ctx, id)
	})
	if err != nil {
		return model.Player{}, err
	}
	log.WithFields(log.Fields{"session_id": p.SessionID, "player_id": p.ID}).Info("player removed")
	return p, nil
}

// notFound turns a repository miss into a NotFound error carrying msg.
func notFound(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFoundf(msg)
	}
	return err
}
